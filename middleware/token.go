package middleware

import (
	"net/http"
	"strings"
)

// TokenFromRequest returns the session token carried by r: the "token" query
// parameter if present, otherwise an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	token, _ := bearerToken(r.Header.Get("Authorization"))
	return token
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
