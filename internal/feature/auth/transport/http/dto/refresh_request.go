package dto

// RefreshReq represents the request for token refresh.
type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshRes represents the response for a successful token refresh.
// The refresh token itself is not rotated.
type RefreshRes struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
