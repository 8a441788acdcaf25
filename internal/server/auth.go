// auth.go - Bearer-token gate for mutating endpoints.
//
// The board has no user accounts; reads are open. Writes can be restricted
// to CI by configuring a shared token.
package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"strings"
)

// ingestAuth guards summary and report ingestion. An empty Token disables
// the check entirely, which is the right default for a board running inside
// a trusted network.
type ingestAuth struct {
	Token string
}

func (a ingestAuth) require(next http.Handler) http.Handler {
	if a.Token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || !tokenEqual(token, a.Token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenEqual compares tokens in constant time. Hashing first keeps the
// comparison constant-time even for different lengths.
func tokenEqual(got, want string) bool {
	gotHash := sha256.Sum256([]byte(got))
	wantHash := sha256.Sum256([]byte(want))
	return hmac.Equal(gotHash[:], wantHash[:])
}
