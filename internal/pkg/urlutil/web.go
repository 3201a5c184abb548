package urlutil

import (
	"net/url"
	"strings"
)

// BuildCallbackSuccessURL builds the front-end URL the browser is sent to
// after a successful OAuth login, with both tokens in the query.
// Returns a URL like: {baseURL}/auth/callback?success=true&accessToken=...&refreshToken=...
func BuildCallbackSuccessURL(baseURL, accessToken, refreshToken string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = "/auth/callback"
	q := u.Query()
	q.Set("success", "true")
	q.Set("accessToken", accessToken)
	q.Set("refreshToken", refreshToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// BuildCallbackErrorURL builds the front-end URL the browser is sent to
// when the OAuth flow fails, carrying a stable error code.
// Returns a URL like: {baseURL}/auth/callback?error={code}
func BuildCallbackErrorURL(baseURL, code string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "/auth/callback?error=" + url.QueryEscape(code)
	}
	u.Path = "/auth/callback"
	q := u.Query()
	q.Set("error", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildSettingsURL builds a front-end settings page URL with a single
// query parameter, used after link/unlink flows.
func BuildSettingsURL(baseURL, key, value string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "/settings"
	}
	u.Path = "/settings"
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// SanitizeRedirectPath constrains a caller-supplied redirect target to a
// path on the front end. Absolute URLs, scheme-relative URLs ("//evil")
// and anything not starting with "/" fall back to the default.
func SanitizeRedirectPath(target, fallback string) string {
	if target == "" {
		return fallback
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	return target
}
