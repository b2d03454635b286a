package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/domain"
	"github.com/vanlogix/tribill/internal/service"
)

type RateHandler struct {
	finance *service.FinanceService
}

func NewRateHandler(finance *service.FinanceService) *RateHandler {
	return &RateHandler{finance: finance}
}

func (h *RateHandler) GetActiveRate(c *gin.Context) {
	base := domain.Currency(strings.ToUpper(c.Param("base")))
	target := domain.Currency(strings.ToUpper(c.Param("target")))

	rate, err := h.finance.ActiveRate(c.Request.Context(), base, target)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, rate)
}

type rotateRateRequest struct {
	BaseCurrency   string          `json:"base_currency" binding:"required"`
	TargetCurrency string          `json:"target_currency" binding:"required"`
	Rate           decimal.Decimal `json:"rate" binding:"required"`
}

func (h *RateHandler) RotateRate(c *gin.Context) {
	var req rotateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid rate payload: "+err.Error())
		return
	}

	rate, err := h.finance.RotateRate(c.Request.Context(),
		domain.Currency(strings.ToUpper(req.BaseCurrency)),
		domain.Currency(strings.ToUpper(req.TargetCurrency)),
		req.Rate)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, rate)
}
