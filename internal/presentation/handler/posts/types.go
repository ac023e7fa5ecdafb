package posts

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/homelyhq/homely/internal/domain"
)

type createPostRequest struct {
	Title     string              `json:"title"`
	Price     int64               `json:"price"`
	Images    []string            `json:"images"`
	Address   string              `json:"address"`
	City      string              `json:"city"`
	Bedroom   int                 `json:"bedroom"`
	Bathroom  int                 `json:"bathroom"`
	Latitude  string              `json:"latitude"`
	Longitude string              `json:"longitude"`
	Type      domain.PostType     `json:"type"`
	Property  domain.PropertyType `json:"property"`
	Detail    *domain.PostDetail  `json:"detail"`
}

type updatePostRequest struct {
	Title     *string              `json:"title"`
	Price     *int64               `json:"price"`
	Images    []string             `json:"images"`
	Address   *string              `json:"address"`
	City      *string              `json:"city"`
	Bedroom   *int                 `json:"bedroom"`
	Bathroom  *int                 `json:"bathroom"`
	Latitude  *string              `json:"latitude"`
	Longitude *string              `json:"longitude"`
	Type      *domain.PostType     `json:"type"`
	Property  *domain.PropertyType `json:"property"`
	Detail    *domain.PostDetail   `json:"detail"`
}

func applyUpdate(post *domain.Post, req *updatePostRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > 140 {
			return fmt.Errorf("title must be between 1 and 140 characters")
		}
		post.Title = title
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fmt.Errorf("price cannot be negative")
		}
		post.Price = *req.Price
	}
	if req.Images != nil {
		post.Images = req.Images
	}
	if req.Address != nil {
		post.Address = strings.TrimSpace(*req.Address)
	}
	if req.City != nil {
		post.City = strings.ToLower(strings.TrimSpace(*req.City))
	}
	if req.Bedroom != nil {
		post.Bedroom = *req.Bedroom
	}
	if req.Bathroom != nil {
		post.Bathroom = *req.Bathroom
	}
	if req.Latitude != nil {
		post.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		post.Longitude = *req.Longitude
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return fmt.Errorf("type must be buy or rent")
		}
		post.Type = *req.Type
	}
	if req.Property != nil {
		if !req.Property.Valid() {
			return fmt.Errorf("property must be apartment, house, condo or land")
		}
		post.Property = *req.Property
	}
	if req.Detail != nil {
		post.Detail = *req.Detail
	}
	return nil
}

func filterFromQuery(q url.Values) (domain.PostFilter, error) {
	var filter domain.PostFilter

	filter.City = strings.ToLower(strings.TrimSpace(q.Get("city")))

	if raw := q.Get("type"); raw != "" {
		t := domain.PostType(raw)
		if !t.Valid() {
			return filter, fmt.Errorf("type must be buy or rent")
		}
		filter.Type = t
	}

	if raw := q.Get("property"); raw != "" {
		p := domain.PropertyType(raw)
		if !p.Valid() {
			return filter, fmt.Errorf("property must be apartment, house, condo or land")
		}
		filter.Property = p
	}

	var err error
	if filter.Bedroom, err = intParam(q, "bedroom"); err != nil {
		return filter, err
	}

	minPrice, err := intParam(q, "minPrice")
	if err != nil {
		return filter, err
	}
	maxPrice, err := intParam(q, "maxPrice")
	if err != nil {
		return filter, err
	}
	if maxPrice > 0 && minPrice > maxPrice {
		return filter, fmt.Errorf("minPrice cannot exceed maxPrice")
	}
	filter.MinPrice = int64(minPrice)
	filter.MaxPrice = int64(maxPrice)

	if filter.Limit, err = intParam(q, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil {
		return filter, err
	}

	return filter, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
