package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// SecretTokenHeader carries the secret_token given to setWebhook on every
// webhook delivery.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var (
	errMissingSecretToken = errors.New("missing secret token header")
	errInvalidSecretToken = errors.New("invalid secret token")
)

// VerifySecretToken checks the webhook secret header against secret.
// An empty secret disables the check.
func VerifySecretToken(r *http.Request, secret string) error {
	if secret == "" {
		return nil
	}
	token := r.Header.Get(SecretTokenHeader)
	if token == "" {
		return errMissingSecretToken
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return errInvalidSecretToken
	}
	return nil
}
