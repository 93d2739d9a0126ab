package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkdomain "github.com/smallbiznis/checkmapper/internal/check/domain"
)

const maxUploadBytes = 16 << 20

type uploadCheckRequest struct {
	CheckID      string `json:"check_id" form:"check_id"`
	SenderName   string `json:"sender_name" form:"sender_name"`
	PhotoDataURI string `json:"photo_data_uri" form:"photo_data_uri"`
}

type resolveCheckRequest struct {
	SenderName string `json:"sender_name"`
}

type updateCheckRequest struct {
	Status         string  `json:"status"`
	MappedTenantID *string `json:"mapped_tenant_id"`
}

type listChecksQuery struct {
	PageToken  string `form:"page_token"`
	PageSize   int    `form:"page_size"`
	Status     string `form:"status"`
	TenantID   string `form:"tenant_id"`
	Suggestion string `form:"suggestion"`
}

// UploadCheck accepts either a multipart form with an "image" file or a JSON
// body carrying photo_data_uri.
func (s *Server) UploadCheck(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var req uploadCheckRequest
	var image []byte
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		header, err := c.FormFile("image")
		if err == nil {
			f, err := header.Open()
			if err != nil {
				AbortWithError(c, newValidationError("image", "invalid_image", "image cannot be read"))
				return
			}
			defer f.Close()
			image, err = io.ReadAll(f)
			if err != nil {
				AbortWithError(c, newValidationError("image", "invalid_image", "image cannot be read"))
				return
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.checkSvc.Upload(c.Request.Context(), checkdomain.UploadCheckRequest{
		CheckID:    strings.TrimSpace(req.CheckID),
		Image:      image,
		DataURI:    strings.TrimSpace(req.PhotoDataURI),
		SenderName: strings.TrimSpace(req.SenderName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListChecks(c *gin.Context) {
	var query listChecksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	suggestion, err := parseOptionalBool(query.Suggestion)
	if err != nil {
		AbortWithError(c, newValidationError("suggestion", "invalid_suggestion", "invalid suggestion"))
		return
	}

	req := checkdomain.ListCheckRequest{
		Status:     strings.TrimSpace(query.Status),
		TenantID:   strings.TrimSpace(query.TenantID),
		Suggestion: suggestion,
	}
	req.PageToken = strings.TrimSpace(query.PageToken)
	req.PageSize = query.PageSize

	resp, err := s.checkSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Checks, "page_info": resp.PageInfo})
}

func (s *Server) GetCheckByID(c *gin.Context) {
	resp, err := s.checkSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetCheckByCheckID looks a check up by the token the client uploaded it with.
func (s *Server) GetCheckByCheckID(c *gin.Context) {
	resp, err := s.checkSvc.GetByCheckID(c.Request.Context(), strings.TrimSpace(c.Param("check_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCheck(c *gin.Context) {
	var req updateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.checkSvc.ManualUpdate(c.Request.Context(), checkdomain.ManualUpdateRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		Status:         strings.TrimSpace(req.Status),
		MappedTenantID: req.MappedTenantID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolveCheck(c *gin.Context) {
	var req resolveCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.checkSvc.Resolve(c.Request.Context(), checkdomain.ResolveCheckRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		SenderName: strings.TrimSpace(req.SenderName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
