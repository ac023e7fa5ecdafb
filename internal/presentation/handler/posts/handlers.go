package posts

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homelyhq/homely/internal/domain"
	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/json"
)

type Handler struct {
	postRepository domain.PostRepository
}

func NewHandler(postRepository domain.PostRepository) *Handler {
	return &Handler{
		postRepository: postRepository,
	}
}

// QueryPostsHandler godoc
// @Summary      List posts
// @Description  Lists posts filtered by city, type, property kind, bedroom count and price range.
// @Tags         posts
// @Produce      json
// @Param        city query string false "City (case-insensitive)"
// @Param        type query string false "buy or rent"
// @Param        property query string false "apartment, house, condo or land"
// @Param        bedroom query int false "Exact bedroom count"
// @Param        minPrice query int false "Minimum price"
// @Param        maxPrice query int false "Maximum price"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200 {array} domain.Post
// @Failure      400 {object} json.ErrorResponse "Invalid filter value"
// @Router       /posts [get]
func (h *Handler) QueryPostsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r.URL.Query())
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	posts, err := h.postRepository.Query(r.Context(), filter)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, posts)
}

// GetPostHandler godoc
// @Summary      Get a post by id
// @Tags         posts
// @Produce      json
// @Param        postId path string true "Post ID"
// @Success      200 {object} domain.Post
// @Failure      404 {object} json.ErrorResponse
// @Router       /posts/{postId} [get]
func (h *Handler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")

	post, err := h.postRepository.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, post)
}

// CreatePostHandler godoc
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request body createPostRequest true "Post to create"
// @Success      201 {object} domain.Post
// @Failure      400 {object} json.ErrorResponse "Validation error"
// @Security     SessionAuth
// @Router       /posts [post]
func (h *Handler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())

	post, err := domain.NewPost(userID, req.Title, req.Address, req.City, req.Price, req.Type, req.Property)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	post.Bedroom = req.Bedroom
	post.Bathroom = req.Bathroom
	post.Images = req.Images
	post.Latitude = req.Latitude
	post.Longitude = req.Longitude
	if req.Detail != nil {
		post.Detail = *req.Detail
	}

	if err := h.postRepository.Create(r.Context(), post); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, post)
}

// UpdatePostHandler godoc
// @Summary      Update a post
// @Description  Updates a post owned by the authenticated user.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        postId path string true "Post ID"
// @Param        request body updatePostRequest true "Fields to update"
// @Success      200 {object} domain.Post
// @Failure      403 {object} json.ErrorResponse "Not the owner"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /posts/{postId} [put]
func (h *Handler) UpdatePostHandler(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")

	post, err := h.postRepository.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	if post.UserID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only update your own posts")
		return
	}

	var req updatePostRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := applyUpdate(post, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}
	post.UpdatedAt = time.Now().UTC()

	if err := h.postRepository.Update(r.Context(), post); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, post)
}

// DeletePostHandler godoc
// @Summary      Delete a post
// @Description  Deletes a post owned by the authenticated user.
// @Tags         posts
// @Produce      json
// @Param        postId path string true "Post ID"
// @Success      204 "Deleted"
// @Failure      403 {object} json.ErrorResponse "Not the owner"
// @Failure      404 {object} json.ErrorResponse
// @Security     SessionAuth
// @Router       /posts/{postId} [delete]
func (h *Handler) DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")

	post, err := h.postRepository.GetByID(r.Context(), postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	if post.UserID != auth.UserIDFromContext(r.Context()) {
		json.WriteForbiddenError(w, "You can only delete your own posts")
		return
	}

	if err := h.postRepository.Delete(r.Context(), postID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			json.WriteNotFoundError(w, "Post not found")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
