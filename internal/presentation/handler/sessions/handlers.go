package sessions

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

// Handler exchanges a verified identity-provider user for a local session
// token. The endpoint is backend-to-backend only: callers must present the
// shared API key, never an end-user credential.
type Handler struct {
	sessions       *auth.Sessions
	userRepository domain.UserRepository
	backendAPIKey  string
}

func NewHandler(sessions *auth.Sessions, userRepository domain.UserRepository, backendAPIKey string) *Handler {
	return &Handler{
		sessions:       sessions,
		userRepository: userRepository,
		backendAPIKey:  backendAPIKey,
	}
}

// CreateSessionHandler godoc
// @Summary      Mint a session token
// @Description  Exchanges an identity-provider user id for a signed session token. Requires the backend API key.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body createSessionRequest true "User to mint a session for"
// @Success      201 {object} createSessionResponse "Session created"
// @Failure      400 {object} json.ErrorResponse "Validation error"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid API key"
// @Failure      404 {object} json.ErrorResponse "Unknown user"
// @Router       /auth/sessions [post]
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if h.backendAPIKey == "" {
		json.WriteUnauthorizedError(w, "Session minting is not configured")
		return
	}

	key := r.Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.backendAPIKey)) != 1 {
		json.WriteUnauthorizedError(w, "Invalid API key")
		return
	}

	var req createSessionRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	if req.ClerkID == "" {
		json.WriteValidationError(w, errors.New("clerkId is required"))
		return
	}

	user, err := h.userRepository.GetByClerkID(r.Context(), req.ClerkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, createSessionResponse{
		Token:  h.sessions.Mint(user.ID),
		UserID: user.ID,
	})
}
