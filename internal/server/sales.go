package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
)

// CreateSale sells items over the counter without a session.
func (s *Server) CreateSale(c *gin.Context) {
	var req orderdomain.DirectSaleRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.DirectSale(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
