package oauth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// Session value keys for the state transaction cookie.
const (
	stateKeyState        = "state"
	stateKeyCodeVerifier = "code_verifier"
	stateKeyIsLink       = "is_link"
	stateKeyUserID       = "user_id"
	stateKeyRedirect     = "redirect"
)

// stateCookieTTL bounds how long a login attempt may sit between the
// redirect to the provider and the callback. An expired cookie makes the
// callback fail CSRF validation; there is no best-effort login.
const stateCookieTTL = 600 // seconds

// StateTransaction is the ephemeral, cookie-carried record of one
// in-flight authorization round-trip. It is fully self-contained so the
// service stays stateless across instances.
type StateTransaction struct {
	State        string
	CodeVerifier string // set only for PKCE providers
	IsLink       bool
	UserID       string // linking actor, set only when IsLink
	RedirectPath string // optional caller-supplied post-login target
}

// StateStore writes and clears the signed per-provider state cookie
type StateStore struct {
	store *sessions.CookieStore
}

// NewStateStore creates a state cookie store. secure should be true in
// production so the cookie is only sent over HTTPS.
func NewStateStore(secret []byte, secure bool) *StateStore {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &StateStore{store: cs}
}

func cookieName(provider string) string {
	return provider + "_oauth"
}

// Write serializes the state transaction into the provider's oauth cookie
func (s *StateStore) Write(w http.ResponseWriter, r *http.Request, provider string, tx *StateTransaction) error {
	session, _ := s.store.New(r, cookieName(provider))
	session.Values[stateKeyState] = tx.State
	session.Values[stateKeyCodeVerifier] = tx.CodeVerifier
	session.Values[stateKeyIsLink] = tx.IsLink
	session.Values[stateKeyUserID] = tx.UserID
	session.Values[stateKeyRedirect] = tx.RedirectPath
	return session.Save(r, w)
}

// ReadAndClear reads the state transaction and unconditionally expires the
// cookie; the transaction is single-use regardless of how the rest of the
// callback goes. A missing, expired or malformed cookie returns ok=false.
func (s *StateStore) ReadAndClear(w http.ResponseWriter, r *http.Request, provider string) (*StateTransaction, bool) {
	// A decode failure still yields a fresh empty session; treat it the
	// same as no cookie at all.
	session, _ := s.store.Get(r, cookieName(provider))

	tx := &StateTransaction{}
	tx.State, _ = session.Values[stateKeyState].(string)
	tx.CodeVerifier, _ = session.Values[stateKeyCodeVerifier].(string)
	tx.IsLink, _ = session.Values[stateKeyIsLink].(bool)
	tx.UserID, _ = session.Values[stateKeyUserID].(string)
	tx.RedirectPath, _ = session.Values[stateKeyRedirect].(string)

	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	if tx.State == "" {
		return nil, false
	}
	return tx, true
}
