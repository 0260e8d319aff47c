package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
)

const defaultUserPage = 100

type UserHandler struct {
	accounts services.AccountService
	log      logging.Logger
}

func NewUserHandler(accounts services.AccountService, log logging.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, log: log.With("handler", "users")}
}

func views(users []*models.User) []models.UserView {
	out := make([]models.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}

// @Summary      Register an account (password policy enforced)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "New account"
// @Success      201   {object}  models.MessageResponse
// @Failure      400   {object}  models.ErrorResponse
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.accounts.CreateAccount(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusCreated, fmt.Sprintf("User %s successfully registered", u.Username))
}

// @Summary      Create a user
// @Tags         Users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "New user"
// @Success      200   {object}  models.UserView
// @Failure      400   {object}  models.ErrorResponse
// @Router       /users/ [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.accounts.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      List users
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query  int  false  "Page size (default 100)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  models.UserView
// @Router       /users/ [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultUserPage)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid offset"})
		return
	}
	users, err := h.accounts.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, views(users))
}

// @Summary      Current user
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.UserView
// @Failure      401  {object}  models.ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      Get a user
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.UserView
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.accounts.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u.View())
}

// @Summary      Delete your own account
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.DeleteUser(c.Request.Context(), actor, id); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "User deleted")
}

// @Summary      Update your profile
// @Description  Empty fields are left unchanged.
// @Tags         Users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      models.UserUpdate  true  "Fields to change"
// @Success      200   {object}  models.MessageResponse
// @Failure      400   {object}  models.ErrorResponse
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.accounts.UpdateProfile(c.Request.Context(), u, req); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Your profile was successfully updated")
}

// @Summary      Change your password
// @Tags         Users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ChangePasswordRequest  true  "Old and new password"
// @Success      200   {object}  models.MessageResponse
// @Failure      400   {object}  models.ErrorResponse
// @Router       /users/me/password [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), u, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, h.log, err)
		return
	}
	message(c, http.StatusOK, "Password changed successfully")
}
