// Package webhook ingests meeting-provider callbacks: it verifies
// signatures, answers endpoint validation challenges, and maps provider
// payloads onto lifecycle events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier authenticates a raw webhook body against the provider's shared
// secret. Implementations must be constant-time on the signature compare.
type Verifier interface {
	Verify(secret, signature string, body []byte) bool
}

// HMACVerifier checks a hex-encoded HMAC-SHA256 of the raw body.
type HMACVerifier struct{}

func (HMACVerifier) Verify(secret, signature string, body []byte) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// JWTVerifier checks an HS256 token whose signing key is the provider
// secret. Providers that sign the whole request (rather than the body)
// put the compact token in the signature header.
type JWTVerifier struct{}

func (JWTVerifier) Verify(secret, signature string, _ []byte) bool {
	if secret == "" || signature == "" {
		return false
	}
	token, err := jwt.Parse(signature, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return false
	}
	return token.Valid
}

// ChallengeResponse answers an endpoint validation probe.
type ChallengeResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

func answerChallenge(secret, plainToken string) ChallengeResponse {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	return ChallengeResponse{
		PlainToken:     plainToken,
		EncryptedToken: hex.EncodeToString(mac.Sum(nil)),
	}
}
