package dto

// UpdateUserRequest is the body of PUT /api/user. An empty password keeps
// the current one; an empty externalToken asks the server to mint one.
type UpdateUserRequest struct {
	Nickname      string `json:"nickname"`
	Password      string `json:"password"`
	Avatar        string `json:"avatar"`
	ExternalToken string `json:"externalToken"`
}

// UpdateUserResponse returns the effective external token after a profile
// save.
type UpdateUserResponse struct {
	Success       bool   `json:"success"`
	ExternalToken string `json:"externalToken"`
}
