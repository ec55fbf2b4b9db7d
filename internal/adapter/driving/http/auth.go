package httphandler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

const signatureHeader = "X-Hub-Signature-256"

// authorize checks a webhook request against the configured shared token
// and/or HMAC signing secret. Either mechanism passing is sufficient. All
// comparisons are constant-time.
func (h *Handler) authorize(r *http.Request, body []byte) bool {
	if h.token != "" {
		token := r.URL.Query().Get("token")
		if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1 {
			return true
		}
	}

	if len(h.secret) > 0 {
		if verifySignature(r.Header.Get(signatureHeader), h.secret, body) {
			return true
		}
	}

	return false
}

// verifySignature checks a "sha256=<hex>" signature header against the HMAC
// of the request body.
func verifySignature(header string, secret, body []byte) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	got, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
