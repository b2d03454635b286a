package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vanlogix/tribill/internal/billing"
	"github.com/vanlogix/tribill/internal/domain"
	"github.com/vanlogix/tribill/internal/service"
)

type FinanceHandler struct {
	finance *service.FinanceService
	stages  *service.StageService
	reports *service.ReportService
}

func NewFinanceHandler(finance *service.FinanceService, stages *service.StageService, reports *service.ReportService) *FinanceHandler {
	return &FinanceHandler{finance: finance, stages: stages, reports: reports}
}

func (h *FinanceHandler) GetBatchFinance(c *gin.Context) {
	view, err := h.finance.GetBatchFinance(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *FinanceHandler) GetStageSummary(c *gin.Context) {
	stage, ok := domain.ParseStage(c.Param("stage"))
	if !ok {
		errorResponse(c, http.StatusBadRequest, "stage must be sender, transit or receiver")
		return
	}

	summary, err := h.stages.StageSummary(c.Request.Context(), c.Param("id"), stage)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, summary)
}

type batchPricesRequest struct {
	UnitPriceA decimal.Decimal `json:"unit_price_a" binding:"required"`
	UnitPriceB decimal.Decimal `json:"unit_price_b" binding:"required"`
	UnitPriceC decimal.Decimal `json:"unit_price_c" binding:"required"`
}

func (h *FinanceHandler) UpdateBatchPrices(c *gin.Context) {
	var req batchPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid price payload: "+err.Error())
		return
	}

	view, err := h.finance.UpdateBatchPrices(c.Request.Context(), c.Param("id"),
		req.UnitPriceA, req.UnitPriceB, req.UnitPriceC)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

type billPriceRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

func (h *FinanceHandler) UpdateBillPrice(c *gin.Context) {
	var req billPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid price payload: "+err.Error())
		return
	}

	view, err := h.finance.UpdateBillPrice(c.Request.Context(), c.Param("id"), req.UnitPrice)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

type weightModeRequest struct {
	BatchID string `json:"batch_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Mode    string `json:"mode" binding:"required"`
}

func (h *FinanceHandler) UpdateWeightMode(c *gin.Context) {
	var req weightModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid weight-mode payload: "+err.Error())
		return
	}

	mode, ok := domain.ParseWeightMode(req.Mode)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "mode must be actual, volumetric or chargeable")
		return
	}

	view, err := h.finance.UpdateWeightMode(c.Request.Context(), req.BatchID, domain.BillType(req.Type), mode)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *FinanceHandler) ForceGenerateBill(c *gin.Context) {
	view, err := h.finance.ForceGenerateBill(c.Request.Context(), c.Param("id"), domain.BillType(c.Param("type")))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *FinanceHandler) DeleteBill(c *gin.Context) {
	view, err := h.finance.DeleteBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *FinanceHandler) AddPayment(c *gin.Context) {
	var input service.PaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid payment payload: "+err.Error())
		return
	}

	view, err := h.finance.AddPayment(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *FinanceHandler) DeletePayment(c *gin.Context) {
	view, err := h.finance.DeletePayment(c.Request.Context(), c.Param("id"), c.Param("pid"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *FinanceHandler) CancelBatch(c *gin.Context) {
	view, err := h.finance.CancelBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *FinanceHandler) ExportReport(c *gin.Context) {
	if h.reports == nil {
		errorResponse(c, http.StatusServiceUnavailable, "report archive is not configured")
		return
	}

	key, err := h.reports.ExportSettlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, billing.ErrMissingBill):
		return http.StatusConflict
	case errors.Is(err, billing.ErrPartyResolution),
		errors.Is(err, billing.ErrInvalidPaymentAmount),
		errors.Is(err, billing.ErrNegativePrice),
		errors.Is(err, billing.ErrNoActiveRate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
