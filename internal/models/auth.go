package models

// VerifyEmailRequest is accepted from the query string or the body.
type VerifyEmailRequest struct {
	Email            string `json:"email" form:"email"`
	ConfirmationCode string `json:"confirmation_code" form:"confirmation_code"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type GeneratedPasswordResponse struct {
	Password string `json:"password"`
}

type ImageResponse struct {
	ImageURL string `json:"image_url"`
}
