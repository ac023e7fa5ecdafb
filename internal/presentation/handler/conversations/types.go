package conversations

type createConversationRequest struct {
	UserID string `json:"userId"`
}
