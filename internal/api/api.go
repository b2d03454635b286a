// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vanlogix/tribill/internal/api/handlers"
	"github.com/vanlogix/tribill/internal/api/middleware"
	"github.com/vanlogix/tribill/internal/service"
)

type Services struct {
	Finance *service.FinanceService
	Stages  *service.StageService
	Reports *service.ReportService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Finance != nil {
			financeHandler := handlers.NewFinanceHandler(services.Finance, services.Stages, services.Reports)
			batchGroup := apiGroup.Group("/batches")
			{
				batchGroup.GET("/:id/finance", financeHandler.GetBatchFinance)
				batchGroup.GET("/:id/stages/:stage", financeHandler.GetStageSummary)
				batchGroup.PUT("/:id/prices", financeHandler.UpdateBatchPrices)
				batchGroup.POST("/:id/bills/:type/generate", financeHandler.ForceGenerateBill)
				batchGroup.POST("/:id/report", financeHandler.ExportReport)
				batchGroup.DELETE("/:id", financeHandler.CancelBatch)
			}

			billGroup := apiGroup.Group("/bills")
			{
				billGroup.PUT("/:id/price", financeHandler.UpdateBillPrice)
				billGroup.PUT("/:id/weight-mode", financeHandler.UpdateWeightMode)
				billGroup.DELETE("/:id", financeHandler.DeleteBill)
				billGroup.POST("/:id/payments", financeHandler.AddPayment)
				billGroup.DELETE("/:id/payments/:pid", financeHandler.DeletePayment)
			}

			rateHandler := handlers.NewRateHandler(services.Finance)
			rateGroup := apiGroup.Group("/rates")
			{
				rateGroup.GET("/:base/:target", rateHandler.GetActiveRate)
				rateGroup.PUT("", rateHandler.RotateRate)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
