package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
)

// PasswordHandler serves the credential vault under /passwords.
type PasswordHandler struct {
	credentials services.CredentialService
	log         logging.Logger
}

func NewPasswordHandler(credentials services.CredentialService, log logging.Logger) *PasswordHandler {
	return &PasswordHandler{credentials: credentials, log: log.With("handler", "passwords")}
}

// @Summary      Store a credential
// @Tags         Passwords
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CredentialInput  true  "Credential"
// @Success      200   {object}  models.CredentialView
// @Failure      400   {object}  models.ErrorResponse
// @Router       /passwords/ [post]
func (h *PasswordHandler) Create(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CredentialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cred, err := h.credentials.Create(c.Request.Context(), u, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cred.View())
}

// @Summary      List your credentials
// @Description  Requires the current e-mailed 2FA code. Passwords are omitted.
// @Tags         Passwords
// @Security     BearerAuth
// @Produce      json
// @Param        code  query  string  true  "2FA code from email"
// @Success      200  {array}   models.CredentialView
// @Failure      401  {object}  models.ErrorResponse
// @Router       /passwords/ [get]
func (h *PasswordHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.credentials.List(c.Request.Context(), u, c.Query("code"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]models.CredentialView, 0, len(list))
	for _, cred := range list {
		out = append(out, cred.View())
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Search credentials by site name
// @Description  Case-insensitive substring match. Requires the current 2FA code. Passwords are included.
// @Tags         Passwords
// @Security     BearerAuth
// @Produce      json
// @Param        site_name  query  string  true  "Site name fragment"
// @Param        code       query  string  true  "2FA code from email"
// @Success      200  {array}   models.CredentialSecretView
// @Failure      401  {object}  models.ErrorResponse
// @Router       /passwords/search [get]
func (h *PasswordHandler) Search(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.credentials.Search(c.Request.Context(), u, c.Query("site_name"), c.Query("code"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]models.CredentialSecretView, 0, len(list))
	for _, cred := range list {
		out = append(out, cred.SecretView())
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Replace a credential
// @Tags         Passwords
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int                     true  "Credential ID"
// @Param        body  body      models.CredentialInput  true  "Credential"
// @Success      200   {object}  models.CredentialView
// @Failure      404   {object}  models.ErrorResponse
// @Router       /passwords/{id} [put]
func (h *PasswordHandler) Replace(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CredentialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cred, err := h.credentials.Replace(c.Request.Context(), u, id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cred.View())
}

// @Summary      Partially update a credential
// @Tags         Passwords
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int                     true  "Credential ID"
// @Param        body  body      models.CredentialPatch  true  "Fields to change"
// @Success      200   {object}  models.CredentialPatchView
// @Failure      404   {object}  models.ErrorResponse
// @Router       /passwords/me/{id} [patch]
func (h *PasswordHandler) Patch(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CredentialPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cred, err := h.credentials.Patch(c.Request.Context(), u, id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cred.PatchView())
}

// @Summary      Delete a credential
// @Tags         Passwords
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  int  true  "Credential ID"
// @Success      200  {object}  models.CredentialView
// @Failure      404  {object}  models.ErrorResponse
// @Router       /passwords/{id} [delete]
func (h *PasswordHandler) Delete(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cred, err := h.credentials.Delete(c.Request.Context(), u, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cred.View())
}
