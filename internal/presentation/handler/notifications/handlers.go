package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

type Handler struct {
	notificationRepository domain.NotificationRepository
}

func NewHandler(notificationRepository domain.NotificationRepository) *Handler {
	return &Handler{
		notificationRepository: notificationRepository,
	}
}

// ListNotificationsHandler godoc
// @Summary      List the authenticated user's notifications
// @Tags         notifications
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} domain.Notification
// @Security     SessionAuth
// @Router       /notifications [get]
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.notificationRepository.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, notifications)
}

// UnreadCountHandler godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} unreadCountResponse
// @Security     SessionAuth
// @Router       /notifications/unread-count [get]
func (h *Handler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	count, err := h.notificationRepository.CountUnread(r.Context(), userID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, unreadCountResponse{Count: count})
}

// MarkReadHandler godoc
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        notificationId path string true "Notification ID"
// @Success      204 "Marked"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /notifications/{notificationId}/read [post]
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	notificationID := chi.URLParam(r, "notificationId")

	if err := h.notificationRepository.MarkRead(r.Context(), notificationID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Notification not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllReadHandler godoc
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Success      204 "Marked"
// @Security     SessionAuth
// @Router       /notifications/read-all [post]
func (h *Handler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := h.notificationRepository.MarkAllRead(r.Context(), userID); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
