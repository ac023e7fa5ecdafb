package sessions

type createSessionRequest struct {
	ClerkID string `json:"clerkId"`
}

type createSessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
