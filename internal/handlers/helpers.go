package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/middleware"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
)

const msgInternal = "Internal server error"

// statusOf maps a service error kind onto an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrExpired),
		errors.Is(err, services.ErrBadCredentials),
		errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrAlreadyConfirmed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log logging.Logger, err error) {
	writeErrorStatus(c, log, statusOf(err), err)
}

func writeErrorStatus(c *gin.Context, log logging.Logger, status int, err error) {
	if status == http.StatusInternalServerError {
		log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"detail": msgInternal})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(status, gin.H{"detail": services.Detail(err, http.StatusText(status))})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// currentUser returns the authenticated user; routes without the auth
// middleware get a 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
	}
	return u, ok
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryBool reads an optional boolean query parameter.
func queryBool(c *gin.Context, key string, def bool) (bool, error) {
	v, ok := c.GetQuery(key)
	if !ok || v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}
