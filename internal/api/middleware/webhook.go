package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const HeaderSignature = "X-Signature"

// maxNotificationBody bounds the body read for signature checks.
const maxNotificationBody = 1 << 20

// VerifySignature rejects notifications whose X-Signature header is not the
// hex HMAC-SHA256 of the body under secret. An optional "sha256=" prefix is
// accepted. With an empty secret every request passes.
func VerifySignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBody))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		got := strings.TrimPrefix(strings.TrimSpace(c.GetHeader(HeaderSignature)), "sha256=")
		sig, err := hex.DecodeString(got)
		if got == "" || err != nil || !hmac.Equal(sig, Sign(secret, body)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Next()
	}
}

// Sign returns the HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
