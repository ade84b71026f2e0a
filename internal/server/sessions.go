package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
	"github.com/smallbiznis/lounge/pkg/db/pagination"
)

func (s *Server) StartSession(c *gin.Context) {
	var req sessiondomain.StartRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.RateProfileID = strings.TrimSpace(req.RateProfileID)

	resp, err := s.sessionSvc.Start(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListActiveSessions(c *gin.Context) {
	resp, err := s.sessionSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSessionHistory(c *gin.Context) {
	var query struct {
		pagination.Pagination
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := s.validateStruct(&query.Pagination); err != nil {
		AbortWithError(c, err)
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	req := sessiondomain.HistoryRequest{Pagination: query.Pagination}
	if from != nil {
		req.From = *from
	}
	if to != nil {
		req.To = *to
	}

	resp, err := s.sessionSvc.ListHistory(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCurrentBill(c *gin.Context) {
	resp, err := s.sessionSvc.CurrentBill(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SwitchSessionProfile(c *gin.Context) {
	var req sessiondomain.SwitchProfileRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(c.Param("id"))
	req.RateProfileID = strings.TrimSpace(req.RateProfileID)

	resp, err := s.sessionSvc.SwitchProfile(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddSessionItem(c *gin.Context) {
	var req sessiondomain.AddItemRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(c.Param("id"))
	req.ProductID = strings.TrimSpace(req.ProductID)

	resp, err := s.sessionSvc.AddItem(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveSessionItem(c *gin.Context) {
	resp, err := s.sessionSvc.RemoveItem(c.Request.Context(), sessiondomain.RemoveItemRequest{
		SessionID: strings.TrimSpace(c.Param("id")),
		ProductID: strings.TrimSpace(c.Param("product_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordSessionPayment(c *gin.Context) {
	var req sessiondomain.RecordPaymentRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(c.Param("id"))

	resp, err := s.sessionSvc.RecordPayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) EditSessionPayment(c *gin.Context) {
	var req sessiondomain.EditPaymentRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(c.Param("id"))
	req.PaymentID = strings.TrimSpace(c.Param("payment_id"))

	resp, err := s.sessionSvc.EditPayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSessionPayment(c *gin.Context) {
	resp, err := s.sessionSvc.DeletePayment(c.Request.Context(), sessiondomain.DeletePaymentRequest{
		SessionID: strings.TrimSpace(c.Param("id")),
		PaymentID: strings.TrimSpace(c.Param("payment_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CheckoutSession(c *gin.Context) {
	var req sessiondomain.CheckoutRequest
	if err := s.bindJSON(c, &req); err != nil {
		AbortWithError(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(c.Param("id"))
	req.PaymentMethod = strings.ToUpper(strings.TrimSpace(req.PaymentMethod))

	resp, err := s.sessionSvc.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
