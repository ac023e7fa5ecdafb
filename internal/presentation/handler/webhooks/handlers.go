package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/events"
	jsonutil "github.com/homelyhq/homely/internal/infrastructure/json"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/metrics"
	"github.com/homelyhq/homely/internal/infrastructure/webhook"
)

const maxWebhookBody = 1 << 20 // 1MB

// Handler ingests identity lifecycle events from the identity provider.
// Payloads are verified against the signing secret before anything is
// parsed; an unverifiable payload is rejected outright.
type Handler struct {
	verifier              *webhook.Verifier
	userRepository        domain.UserRepository
	notificationPublisher *events.NotificationPublisher
	logger                logging.Logger
}

// NewHandler wires the webhook endpoint. notificationPublisher may be nil
// when messaging is disabled.
func NewHandler(verifier *webhook.Verifier, userRepository domain.UserRepository, notificationPublisher *events.NotificationPublisher, logger logging.Logger) *Handler {
	return &Handler{
		verifier:              verifier,
		userRepository:        userRepository,
		notificationPublisher: notificationPublisher,
		logger:                logger,
	}
}

// ClerkWebhookHandler godoc
// @Summary      Identity lifecycle webhook
// @Description  Receives signed user.created, user.updated and user.deleted events and syncs the local user store.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} webhookResponse "Event processed"
// @Failure      400 {object} json.ErrorResponse "Bad signature or malformed payload"
// @Router       /webhooks/clerk [post]
func (h *Handler) ClerkWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		jsonutil.WriteBadRequestError(w, "Failed to read request body")
		return
	}

	if err := h.verifier.Verify(r.Header, body); err != nil {
		h.logger.Warn(logging.Webhook, logging.Signature, "webhook signature rejected", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		jsonutil.WriteBadRequestError(w, "Invalid webhook signature")
		return
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "malformed").Inc()
		jsonutil.WriteBadRequestError(w, "Malformed webhook payload")
		return
	}

	var handleErr error
	switch event.Type {
	case "user.created":
		handleErr = h.handleUserCreated(r, &event.Data)
	case "user.updated":
		handleErr = h.handleUserUpdated(r, &event.Data)
	case "user.deleted":
		handleErr = h.handleUserDeleted(r, &event.Data)
	default:
		// Unrecognized lifecycle events are acknowledged so the provider
		// stops retrying them.
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		jsonutil.Write(w, http.StatusOK, webhookResponse{Received: true})
		return
	}

	if handleErr != nil {
		if errors.Is(handleErr, domain.ErrInvalidInput) {
			metrics.WebhookEventsTotal.WithLabelValues(event.Type, "malformed").Inc()
			jsonutil.WriteBadRequestError(w, "Malformed webhook payload")
			return
		}

		h.logger.Error(logging.Webhook, logging.Lifecycle, "webhook event failed", map[logging.ExtraKey]any{
			"event":              event.Type,
			logging.ErrorMessage: handleErr.Error(),
		})
		metrics.WebhookEventsTotal.WithLabelValues(event.Type, "failed").Inc()
		jsonutil.WriteInternalError(w, handleErr)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(event.Type, "processed").Inc()
	jsonutil.Write(w, http.StatusOK, webhookResponse{Received: true})
}

// handleUserCreated syncs a freshly provisioned identity. The provider
// retries deliveries, so replaying the same event must not create a second
// record.
func (h *Handler) handleUserCreated(r *http.Request, data *clerkUserData) error {
	ctx := r.Context()

	if _, err := h.userRepository.GetByClerkID(ctx, data.ID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	user, err := domain.NewUser(data.ID, data.primaryEmail(), data.displayName(), data.ImageURL)
	if err != nil {
		return err
	}

	if err := h.userRepository.Create(ctx, user); err != nil {
		// Concurrent delivery of the same event.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil
		}
		return err
	}

	h.logger.Info(logging.Webhook, logging.Lifecycle, "user provisioned", map[logging.ExtraKey]any{
		logging.UserID: user.ID,
	})

	return nil
}

// handleUserUpdated applies profile changes; an update for a user that was
// never provisioned upserts it instead.
func (h *Handler) handleUserUpdated(r *http.Request, data *clerkUserData) error {
	ctx := r.Context()

	user, err := h.userRepository.GetByClerkID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return h.handleUserCreated(r, data)
		}
		return err
	}

	if email := data.primaryEmail(); email != "" {
		user.Email = strings.ToLower(email)
	}
	if name := data.displayName(); name != "" {
		user.Username = name
	}
	if data.ImageURL != "" {
		user.Avatar = data.ImageURL
	}
	user.UpdatedAt = time.Now().UTC()

	return h.userRepository.Update(ctx, user)
}

// handleUserDeleted removes the local record; deleting a user that does not
// exist locally is a no-op so retried deletes stay 200. The deletion is
// fanned out on the broker so consumers can drop the user's notifications.
func (h *Handler) handleUserDeleted(r *http.Request, data *clerkUserData) error {
	ctx := r.Context()

	user, err := h.userRepository.GetByClerkID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := h.userRepository.DeleteByClerkID(ctx, data.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if h.notificationPublisher != nil {
		if err := h.notificationPublisher.PublishUserDeleted(ctx, user.ID); err != nil {
			h.logger.Warn(logging.Webhook, logging.Lifecycle, "user deletion not fanned out", map[logging.ExtraKey]any{
				logging.UserID:       user.ID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	return nil
}
