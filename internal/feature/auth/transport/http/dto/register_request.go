package dto

// RegisterReq represents the request body for the /auth/register endpoint.
// Password strength is checked by the usecase, so only presence is validated here.
type RegisterReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
