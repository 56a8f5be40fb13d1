package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketops/leadbridge/internal/logger"
	"github.com/marketops/leadbridge/internal/service"
	"github.com/marketops/leadbridge/internal/webhook"
)

// SignatureHeader is the provider's signature header on event deliveries.
const SignatureHeader = "X-Hub-Signature-256"

// DeliveryProcessor is the processing surface the webhook handler drives.
type DeliveryProcessor interface {
	ProcessDelivery(ctx context.Context, delivery *webhook.Delivery) service.DeliveryStats
}

// WebhookHandler handles the ads platform's webhook endpoints: the GET
// subscription handshake and POST lead event deliveries.
type WebhookHandler struct {
	processor   DeliveryProcessor
	appSecret   string
	verifyToken string
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor DeliveryProcessor, appSecret, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		appSecret:   appSecret,
		verifyToken: verifyToken,
	}
}

// Verify handles GET /webhooks/meta, the provider's subscription handshake.
// On success the response body is the literal challenge string, not JSON.
// Each handshake request is independent and idempotent; nothing persists.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}

	logger.FromContext(c.Request.Context()).
		WithField("hub_mode", mode).
		Warn("Webhook verification rejected")
	c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
}

// Receive handles POST /webhooks/meta. The raw body is captured before any
// JSON parsing: signature verification runs over the exact bytes received.
// Every outcome past the signature check is a 200 acknowledgement — the
// provider's retry semantics are per-delivery, and per-lead failures are
// handled by the audit log and circuit breaker, not by redelivery.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	if !webhook.VerifySignature(body, c.GetHeader(SignatureHeader), h.appSecret) {
		logger.FromContext(c.Request.Context()).Warn("Webhook signature verification failed")
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var delivery webhook.Delivery
	if err := json.Unmarshal(body, &delivery); err != nil {
		// Signed but unparseable: acknowledge so the provider does not
		// redeliver a body we will never be able to process.
		logger.FromContext(c.Request.Context()).WithError(err).Warn("Unparseable webhook delivery")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if delivery.Object != webhook.ObjectPage {
		// Other object types are not ours; acknowledge without processing.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	stats := h.processor.ProcessDelivery(c.Request.Context(), &delivery)
	if stats.Processed+stats.Skipped+stats.Failed > 0 {
		logger.FromContext(c.Request.Context()).WithFields(logger.Fields{
			"processed": stats.Processed,
			"skipped":   stats.Skipped,
			"failed":    stats.Failed,
		}).Info("Webhook delivery handled")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
