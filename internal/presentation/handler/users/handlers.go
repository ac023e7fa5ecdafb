package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

type Handler struct {
	userRepository      domain.UserRepository
	postRepository      domain.PostRepository
	savedPostRepository domain.SavedPostRepository
}

func NewHandler(
	userRepository domain.UserRepository,
	postRepository domain.PostRepository,
	savedPostRepository domain.SavedPostRepository,
) *Handler {
	return &Handler{
		userRepository:      userRepository,
		postRepository:      postRepository,
		savedPostRepository: savedPostRepository,
	}
}

// ListUsersHandler godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} domain.User
// @Security     SessionAuth
// @Router       /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userRepository.List(r.Context(), limit, offset)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, users)
}

// GetMeHandler godoc
// @Summary      Get the authenticated user
// @Tags         users
// @Produce      json
// @Success      200 {object} domain.User
// @Failure      404 {object} json.ErrorResponse "User no longer exists"
// @Security     SessionAuth
// @Router       /users/me [get]
func (h *Handler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	user, err := h.userRepository.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, user)
}

// GetUserHandler godoc
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200 {object} domain.User
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /users/{userId} [get]
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	user, err := h.userRepository.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, user)
}

// UpdateUserHandler godoc
// @Summary      Update a user
// @Description  Updates the authenticated user's own profile. Other users' profiles are off limits.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        request body updateUserRequest true "Fields to update"
// @Success      200 {object} domain.User
// @Failure      403 {object} json.ErrorResponse "Not your profile"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /users/{userId} [put]
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only update your own profile")
		return
	}

	var req updateUserRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, err := h.userRepository.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 2 || len(username) > 32 {
			json.WriteValidationError(w, errors.New("username must be between 2 and 32 characters"))
			return
		}
		user.Username = username
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.userRepository.Update(r.Context(), user); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, user)
}

// DeleteUserHandler godoc
// @Summary      Delete a user
// @Description  Deletes the authenticated user's own account.
// @Tags         users
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      204 "Deleted"
// @Failure      403 {object} json.ErrorResponse "Not your account"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /users/{userId} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only delete your own account")
		return
	}

	if err := h.userRepository.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "User not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleSavedPostHandler godoc
// @Summary      Save or unsave a post
// @Description  Toggles the saved state of a post for the authenticated user.
// @Tags         users
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        postId path string true "Post ID"
// @Success      200 {object} toggleSavedResponse
// @Failure      403 {object} json.ErrorResponse "Not your saved list"
// @Failure      404 {object} json.ErrorResponse "Post not found"
// @Security     SessionAuth
// @Router       /users/{userId}/saved/{postId} [post]
func (h *Handler) ToggleSavedPostHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	postID := chi.URLParam(r, "postId")

	if userID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only manage your own saved posts")
		return
	}

	if _, err := h.postRepository.GetByID(r.Context(), postID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	saved, err := h.savedPostRepository.IsSaved(r.Context(), userID, postID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	if saved {
		if err := h.savedPostRepository.Unsave(r.Context(), userID, postID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			json.WriteInternalError(w, err)
			return
		}
		json.Write(w, http.StatusOK, toggleSavedResponse{Saved: false})
		return
	}

	if err := h.savedPostRepository.Save(r.Context(), userID, postID); err != nil && !errors.Is(err, domain.ErrDuplicate) {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toggleSavedResponse{Saved: true})
}

// ListSavedPostsHandler godoc
// @Summary      List a user's saved posts
// @Tags         users
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200 {array} domain.Post
// @Failure      403 {object} json.ErrorResponse "Not your saved list"
// @Security     SessionAuth
// @Router       /users/{userId}/saved [get]
func (h *Handler) ListSavedPostsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only view your own saved posts")
		return
	}

	saved, err := h.savedPostRepository.ListByUser(r.Context(), userID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	// Resolve saved entries to posts; entries whose post has since been
	// deleted are skipped.
	posts := make([]domain.Post, 0, len(saved))
	for _, s := range saved {
		post, err := h.postRepository.GetByID(r.Context(), s.PostID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			json.WriteInternalError(w, err)
			return
		}
		posts = append(posts, *post)
	}

	json.Write(w, http.StatusOK, posts)
}
