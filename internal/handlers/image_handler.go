package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/services"
)

type ImageHandler struct {
	images services.ImageService
	log    logging.Logger
}

func NewImageHandler(images services.ImageService, log logging.Logger) *ImageHandler {
	return &ImageHandler{images: images, log: log.With("handler", "image")}
}

// @Summary      Generate an image from a prompt
// @Tags         Image
// @Security     BearerAuth
// @Produce      json
// @Param        prompt  query  string  true  "Text prompt"
// @Success      200  {object}  models.ImageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      502  {object}  models.ErrorResponse
// @Router       /image/generate [get]
func (h *ImageHandler) Generate(c *gin.Context) {
	url, err := h.images.Generate(c.Request.Context(), c.Query("prompt"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ImageResponse{ImageURL: url})
}
