package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/installsync/portal-server-go/internal/redis"
	"github.com/installsync/portal-server-go/internal/util"
)

const WebhookEventContextKey contextKey = "webhookEvent"

// Nonce tokens are held long enough to cover the provider's retry window.
const webhookNonceTTL = 15 * time.Minute

// WebhookSignature is the provider's body-embedded signature block.
type WebhookSignature struct {
	Timestamp string `json:"timestamp"`
	Token     string `json:"token"`
	Signature string `json:"signature"`
}

// WebhookEvent is the parsed email-event payload.
type WebhookEvent struct {
	Signature WebhookSignature `json:"signature"`
	EventData struct {
		Event         string `json:"event"`
		Recipient     string `json:"recipient"`
		UserVariables struct {
			ProjectID string `json:"project_id"`
		} `json:"user-variables"`
	} `json:"event-data"`
}

func GetWebhookEvent(ctx context.Context) *WebhookEvent {
	if event, ok := ctx.Value(WebhookEventContextKey).(*WebhookEvent); ok {
		return event
	}
	return nil
}

// WebhookSignatureMiddleware verifies the HMAC signature on inbound email
// events before any side effect runs. With no signing key configured the
// check is skipped; that is an intentional relaxation for environments
// without the secret provisioned, and it is logged every time.
type WebhookSignatureMiddleware struct {
	signingKey  string
	redisClient *redisclient.Client
}

func NewWebhookSignatureMiddleware(signingKey string, redisClient *redisclient.Client) *WebhookSignatureMiddleware {
	return &WebhookSignatureMiddleware{signingKey: signingKey, redisClient: redisClient}
}

func (m *WebhookSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("webhook middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var event WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			log.Warn().Err(err).Msg("webhook middleware: invalid JSON body")
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid JSON body",
			})
			return
		}

		if m.signingKey == "" {
			log.Warn().Msg("webhook signature verification bypassed: WEBHOOK_SIGNING_KEY is not configured")
		} else {
			sig := event.Signature
			if sig.Timestamp == "" || sig.Token == "" || sig.Signature == "" {
				log.Warn().Msg("webhook middleware: missing signature fields")
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Missing signature",
				})
				return
			}

			computed := util.HmacSHA256(m.signingKey, sig.Timestamp+sig.Token)
			if !util.ConstantTimeEqual(computed, sig.Signature) {
				log.Warn().Msg("webhook middleware: invalid signature")
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Invalid signature",
				})
				return
			}

			if !m.claimNonce(r.Context(), sig.Token) {
				log.Warn().Msg("webhook middleware: replayed nonce")
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "Replayed signature",
				})
				return
			}
		}

		ctx := context.WithValue(r.Context(), WebhookEventContextKey, &event)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimNonce reserves a nonce token; a second claim within the TTL is a
// replay. Redis being down fails open so a cache outage cannot drop events.
func (m *WebhookSignatureMiddleware) claimNonce(ctx context.Context, token string) bool {
	if m.redisClient == nil {
		return true
	}
	ok, err := m.redisClient.SetNX(ctx, redisclient.WebhookNonceKey(token), 1, webhookNonceTTL).Result()
	if err != nil {
		log.Warn().Err(err).Msg("webhook nonce check failed, accepting event")
		return true
	}
	return ok
}
