package users

type updateUserRequest struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

type toggleSavedResponse struct {
	Saved bool `json:"saved"`
}
