package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/mapping/sheet"
)

const maxImportBytes = 5 << 20

type mappingRequest struct {
	SenderName string `json:"sender_name"`
	TenantID   string `json:"tenant_id"`
}

func (s *Server) CreateMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mappingSvc.Create(c.Request.Context(), mappingdomain.CreateMappingRequest{
		SenderName: strings.TrimSpace(req.SenderName),
		TenantID:   strings.TrimSpace(req.TenantID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMappings(c *gin.Context) {
	var query mappingdomain.ListMappingRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.TenantID = strings.TrimSpace(query.TenantID)
	query.Order = strings.TrimSpace(query.Order)

	resp, err := s.mappingSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Mappings, "page_info": resp.PageInfo})
}

func (s *Server) GetMappingByID(c *gin.Context) {
	resp, err := s.mappingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mappingSvc.Update(c.Request.Context(), mappingdomain.UpdateMappingRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		SenderName: strings.TrimSpace(req.SenderName),
		TenantID:   strings.TrimSpace(req.TenantID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteMapping(c *gin.Context) {
	if err := s.mappingSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ExportMappings(c *gin.Context) {
	data, err := s.mappingSheet.Export(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("mappings-%s.xlsx", s.nowDate())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, sheet.ContentType, data)
}

func (s *Server) ImportMappings(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "file is required"))
		return
	}
	if header.Size > maxImportBytes {
		AbortWithError(c, newValidationError("file", "invalid_file", "file is too large"))
		return
	}

	f, err := header.Open()
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "file cannot be read"))
		return
	}
	defer f.Close()

	resp, err := s.mappingSheet.Import(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
