package dto

// EmailReq はメールアドレスだけを受け取るエンドポイント
// （/auth/request-verify-token、/auth/forgot-password）のリクエストボディです。
type EmailReq struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyReq は/auth/verifyのリクエストボディです。
type VerifyReq struct {
	Token string `json:"token" binding:"required"`
}

// ResetPasswordReq は/auth/reset-passwordのリクエストボディです。
type ResetPasswordReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}
