package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListRateProfiles(c *gin.Context) {
	category := strings.ToUpper(strings.TrimSpace(c.Query("category")))
	if category == "" {
		AbortWithError(c, newValidationError("category", "invalid_category", "category is required"))
		return
	}

	resp, err := s.rateSvc.ListByCategory(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRateProfileByID(c *gin.Context) {
	resp, err := s.rateSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
