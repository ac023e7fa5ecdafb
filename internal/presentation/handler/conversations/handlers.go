package conversations

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

type Handler struct {
	conversationRepository domain.ConversationRepository
	userRepository         domain.UserRepository
}

func NewHandler(
	conversationRepository domain.ConversationRepository,
	userRepository domain.UserRepository,
) *Handler {
	return &Handler{
		conversationRepository: conversationRepository,
		userRepository:         userRepository,
	}
}

// ListConversationsHandler godoc
// @Summary      List the authenticated user's conversations
// @Tags         conversations
// @Produce      json
// @Success      200 {array} domain.Conversation
// @Security     SessionAuth
// @Router       /conversations [get]
func (h *Handler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	conversations, err := h.conversationRepository.ListByParticipant(r.Context(), userID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, conversations)
}

// CreateConversationHandler godoc
// @Summary      Start a conversation
// @Description  Creates a conversation between the authenticated user and another user. Creating a conversation with the same user twice returns the existing one.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request body createConversationRequest true "The other participant"
// @Success      200 {object} domain.Conversation "Existing conversation"
// @Success      201 {object} domain.Conversation "New conversation"
// @Failure      400 {object} json.ErrorResponse "Validation error"
// @Failure      404 {object} json.ErrorResponse "Other participant does not exist"
// @Security     SessionAuth
// @Router       /conversations [post]
func (h *Handler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if req.UserID == "" {
		json.WriteValidationError(w, errors.New("userId is required"))
		return
	}
	if req.UserID == userID {
		json.WriteValidationError(w, errors.New("cannot start a conversation with yourself"))
		return
	}

	if _, err := h.userRepository.GetByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	// Conversations are keyed on the participant pair, so re-creating one
	// hands back the existing record.
	pairKey := domain.PairKeyFor(userID, req.UserID)
	existing, err := h.conversationRepository.GetByPairKey(r.Context(), pairKey)
	if err == nil {
		json.Write(w, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		json.WriteInternalError(w, err)
		return
	}

	conversation, err := domain.NewConversation(userID, req.UserID)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.conversationRepository.Create(r.Context(), conversation); err != nil {
		// Lost a race with a concurrent create for the same pair.
		if errors.Is(err, domain.ErrDuplicate) {
			existing, lookupErr := h.conversationRepository.GetByPairKey(r.Context(), pairKey)
			if lookupErr != nil {
				json.WriteInternalError(w, lookupErr)
				return
			}
			json.Write(w, http.StatusOK, existing)
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, conversation)
}

// GetConversationHandler godoc
// @Summary      Get a conversation
// @Description  Returns a conversation the authenticated user participates in and marks it seen.
// @Tags         conversations
// @Produce      json
// @Param        chatId path string true "Conversation ID"
// @Success      200 {object} domain.Conversation
// @Failure      403 {object} json.ErrorResponse "Not a participant"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /conversations/{chatId} [get]
func (h *Handler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.participantConversation(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.conversationRepository.MarkSeen(r.Context(), conversation.ID, userID); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, conversation)
}

// MarkReadHandler godoc
// @Summary      Mark a conversation as read
// @Tags         conversations
// @Produce      json
// @Param        chatId path string true "Conversation ID"
// @Success      204 "Marked"
// @Failure      403 {object} json.ErrorResponse "Not a participant"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /conversations/{chatId}/read [post]
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	conversation, ok := h.participantConversation(w, r)
	if !ok {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.conversationRepository.MarkSeen(r.Context(), conversation.ID, userID); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// participantConversation loads the conversation from the route and rejects
// the request unless the caller participates in it.
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
