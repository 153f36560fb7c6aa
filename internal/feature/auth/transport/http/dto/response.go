package dto

// ErrorRes はエラーレスポンスです。Errorには機械可読なエラーコードが入ります。
type ErrorRes struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// MessageRes は本文を持たない成功レスポンスです。
type MessageRes struct {
	Message string `json:"message"`
}
