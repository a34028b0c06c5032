package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImage stores the multipart "image" file for a card and records its path.
func (h *CardHandler) UploadImage(c *gin.Context) {
	header, errFile := c.FormFile("image")
	if errFile != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	src, errOpen := header.Open()
	if errOpen != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
		return
	}
	defer func() { _ = src.Close() }()

	path, errAttach := h.svc.AttachImage(c.Request.Context(), c.Param("number"), src, header.Filename)
	if errAttach != nil {
		abortWithError(c, errAttach, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image attached successfully", "card_image_path": path})
}
