package messages

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/events"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

type Handler struct {
	messageRepository      domain.MessageRepository
	conversationRepository domain.ConversationRepository
	notificationPublisher  *events.NotificationPublisher
}

// NewHandler wires the message endpoints. notificationPublisher may be nil
// when messaging is disabled.
func NewHandler(
	messageRepository domain.MessageRepository,
	conversationRepository domain.ConversationRepository,
	notificationPublisher *events.NotificationPublisher,
) *Handler {
	return &Handler{
		messageRepository:      messageRepository,
		conversationRepository: conversationRepository,
		notificationPublisher:  notificationPublisher,
	}
}

// CreateMessageHandler godoc
// @Summary      Send a message
// @Description  Persists a message in a conversation the authenticated user participates in and updates the conversation's last message.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        chatId path string true "Conversation ID"
// @Param        request body createMessageRequest true "Message text"
// @Success      201 {object} domain.Message
// @Failure      400 {object} json.ErrorResponse "Validation error"
// @Failure      403 {object} json.ErrorResponse "Not a participant"
// @Failure      404 {object} json.ErrorResponse "Conversation not found"
// @Security     SessionAuth
// @Router       /conversations/{chatId}/messages [post]
func (h *Handler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.participantConversation(w, r)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	message, err := domain.NewMessage(conversation.ID, userID, req.Text)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.messageRepository.Create(ctx, message); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	if err := h.conversationRepository.SetLastMessage(ctx, conversation.ID, message.Text, userID); err != nil {
		log.Printf("Failed to update conversation %s last message: %v", conversation.ID, err)
	}

	if h.notificationPublisher != nil {
		recipientID := conversation.OtherParticipant(userID)
		if err := h.notificationPublisher.PublishMessageCreated(ctx, *message, recipientID); err != nil {
			log.Printf("Error publishing message created: %v", err)
		}
	}

	json.Write(w, http.StatusCreated, message)
}

// ListMessagesHandler godoc
// @Summary      List messages in a conversation
// @Description  Returns messages sorted oldest first.
// @Tags         messages
// @Produce      json
// @Param        chatId path string true "Conversation ID"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} domain.Message
// @Failure      403 {object} json.ErrorResponse "Not a participant"
// @Failure      404 {object} json.ErrorResponse "Conversation not found"
// @Security     SessionAuth
// @Router       /conversations/{chatId}/messages [get]
func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.participantConversation(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.messageRepository.ListByConversation(r.Context(), conversation.ID, limit, offset)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, messages)
}

func (h *Handler) participantConversation(w http.ResponseWriter, r *http.Request) (*domain.Conversation, bool) {
	chatID := chi.URLParam(r, "chatId")

	conversation, err := h.conversationRepository.GetByID(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Conversation not found")
			return nil, false
		}
		json.WriteInternalError(w, err)
		return nil, false
	}

	if !conversation.HasParticipant(auth.UserIDFromContext(r.Context())) {
		json.WriteForbiddenError(w, "You are not part of this conversation")
		return nil, false
	}

	return conversation, true
}
