package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
	"passkeeper/internal/utils"
)

type AuthHandler struct {
	accounts services.AccountService
	log      logging.Logger
}

func NewAuthHandler(accounts services.AccountService, log logging.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log.With("handler", "auth")}
}

// bindQueryOrBody fills obj from the query string, then from the body if one
// was sent.
func bindQueryOrBody(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return err
	}
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBind(obj)
}

// @Summary      Obtain an access token
// @Description  OAuth2 password flow. username may be the e-mail or the username.
// @Tags         Auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "E-mail or username"
// @Param        password  formData  string  true  "Password"
// @Success      200  {object}  models.TokenResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// @Summary      Register with e-mail confirmation
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "New account"
// @Success      200   {object}  models.MessageResponse
// @Failure      400   {object}  models.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.accounts.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "The confirmation code sent to your email. Please check your email for the confirmation code")
}

// @Summary      Confirm the registration e-mail
// @Tags         Auth
// @Produce      json
// @Param        email              query     string  false  "E-mail"
// @Param        confirmation_code  query     string  false  "Six digit code"
// @Param        body               body      models.VerifyEmailRequest  false  "Alternative to the query"
// @Success      200  {object}  models.MessageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req models.VerifyEmailRequest
	if err := bindQueryOrBody(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Email == "" || req.ConfirmationCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and confirmation_code are required"})
		return
	}
	if err := h.accounts.ConfirmEmail(c.Request.Context(), req.Email, req.ConfirmationCode); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Email successfully confirmed")
}

// @Summary      Generate a random password
// @Tags         Auth
// @Produce      json
// @Param        length     query  int   false  "Length (default 15)"
// @Param        symbols    query  bool  false  "Include punctuation"
// @Param        numbers    query  bool  false  "Include digits"
// @Param        uppercase  query  bool  false  "Include A-Z"
// @Param        lowercase  query  bool  false  "Include a-z"
// @Success      200  {object}  models.GeneratedPasswordResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /auth/generate-password [get]
func (h *AuthHandler) GeneratePassword(c *gin.Context) {
	opts := utils.DefaultPasswordOptions()
	if v := c.Query("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "length must be an integer"})
			return
		}
		opts.Length = n
	}
	var err error
	flags := []struct {
		key string
		dst *bool
	}{
		{"symbols", &opts.Symbols},
		{"numbers", &opts.Numbers},
		{"uppercase", &opts.Uppercase},
		{"lowercase", &opts.Lowercase},
	}
	for _, f := range flags {
		if *f.dst, err = queryBool(c, f.key, *f.dst); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": f.key + " must be a boolean"})
			return
		}
	}

	pw, err := utils.GeneratePassword(opts)
	if errors.Is(err, utils.ErrEmptyAlphabet) || errors.Is(err, utils.ErrInvalidLength) {
		badRequest(c, err)
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.GeneratedPasswordResponse{Password: pw})
}

// @Summary      Request a password reset link
// @Tags         Auth
// @Produce      json
// @Param        email  query     string  false  "E-mail"
// @Param        body   body      models.EmailRequest  false  "Alternative to the query"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.EmailRequest
	if err := bindQueryOrBody(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email is required"})
		return
	}
	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Reset link sent")
}

// @Summary      Reset the password with an e-mailed token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  models.MessageResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      404   {object}  models.ErrorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Password successfully reset")
}

// @Summary      Send a second-factor code
// @Tags         Auth
// @Produce      json
// @Param        email  query     string  false  "E-mail"
// @Param        body   body      models.EmailRequest  false  "Alternative to the query"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/send-2F [post]
func (h *AuthHandler) SendSecondFactor(c *gin.Context) {
	var req models.EmailRequest
	if err := bindQueryOrBody(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email is required"})
		return
	}
	if err := h.accounts.RequestSecondFactor(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "2FA code sent to email")
}

// @Summary      Verify a second-factor code
// @Tags         Auth
// @Produce      json
// @Param        email  query     string  false  "E-mail"
// @Param        code   query     string  false  "Six digit code"
// @Param        body   body      models.EmailCodeRequest  false  "Alternative to the query"
// @Success      200  {object}  models.MessageResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/verify-2F [post]
func (h *AuthHandler) VerifySecondFactor(c *gin.Context) {
	var req models.EmailCodeRequest
	if err := bindQueryOrBody(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Email == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and code are required"})
		return
	}
	err := h.accounts.VerifySecondFactor(c.Request.Context(), req.Email, req.Code)
	switch {
	case err == nil:
		message(c, http.StatusOK, "2FA verification successful and access granted")
	case errors.Is(err, services.ErrInvalidCode), errors.Is(err, services.ErrExpired):
		writeErrorStatus(c, h.log, http.StatusUnauthorized, err)
	default:
		writeError(c, h.log, err)
	}
}
