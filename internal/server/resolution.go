package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type previewResolutionRequest struct {
	SenderName string `json:"sender_name"`
}

// PreviewResolution runs the engine without touching any check.
func (s *Server) PreviewResolution(c *gin.Context) {
	var req previewResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.resolutionSvc.Resolve(c.Request.Context(), req.SenderName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
