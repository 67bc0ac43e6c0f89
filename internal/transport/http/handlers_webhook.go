package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notarius/internal/webhook"
	dErrors "notarius/pkg/domain-errors"
	"notarius/pkg/platform/httputil"
)

// signatureHeader carries the provider's body signature, either a hex
// HMAC digest or a compact JWT depending on the provider's verifier.
const signatureHeader = "X-Webhook-Signature"

const maxWebhookBody = 1 << 20

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")

	secret, ok := h.secrets[provider]
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown webhook provider"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unreadable request body"))
		return
	}

	verifier, ok := h.verifiers[provider]
	if !ok {
		verifier = webhook.HMACVerifier{}
	}
	if !verifier.Verify(secret, r.Header.Get(signatureHeader), body) {
		h.logger.WarnContext(ctx, "webhook signature rejected", "provider", provider)
		httputil.WriteError(w, dErrors.New(dErrors.CodePolicyDenied, "signature verification failed"))
		return
	}

	challenge, err := h.processor.Process(ctx, secret, body)
	if err != nil {
		h.logger.WarnContext(ctx, "webhook rejected", "provider", provider, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if challenge != nil {
		httputil.WriteJSON(w, http.StatusOK, challenge)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
