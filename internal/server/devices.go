package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
)

func (s *Server) ListDevices(c *gin.Context) {
	var query struct {
		Category string `form:"category"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.deviceSvc.List(c.Request.Context(), devicedomain.ListRequest{
		Category: strings.ToUpper(strings.TrimSpace(query.Category)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDevice(c *gin.Context) {
	var req devicedomain.CreateRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.deviceSvc.Create(c.Request.Context(), devicedomain.CreateRequest{
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetDeviceByID(c *gin.Context) {
	resp, err := s.deviceSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
