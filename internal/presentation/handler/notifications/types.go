package notifications

type unreadCountResponse struct {
	Count int64 `json:"count"`
}
