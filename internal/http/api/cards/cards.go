package cards

import (
	"github.com/giftledger/giftledger/internal/http/api/cards/handlers"
	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/gin-gonic/gin"
)

// Options configures the card routes.
type Options struct {
	Health  handlers.Pinger // Storage probe for /healthz.
	MaskPIN bool            // Hide PINs in CSV exports.
}

// RegisterCardRoutes registers the ledger API on r.
func RegisterCardRoutes(r *gin.Engine, svc *ledger.Service, opts Options) {
	if r == nil || svc == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(opts.Health)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api")

	cardHandler := handlers.NewCardHandler(svc)
	api.GET("/cards", cardHandler.List)
	api.POST("/cards", cardHandler.Create)
	api.PUT("/cards", cardHandler.BulkSave)
	api.POST("/cards/delete", cardHandler.BulkDelete)
	api.GET("/cards/:number", cardHandler.Get)
	api.PUT("/cards/:number", cardHandler.Update)
	api.DELETE("/cards/:number", cardHandler.Delete)
	api.POST("/cards/:number/image", cardHandler.UploadImage)

	reportHandler := handlers.NewReportHandler(svc, opts.MaskPIN)
	api.GET("/summary", reportHandler.Summary)
	api.GET("/options", reportHandler.Options)
	api.GET("/export.csv", reportHandler.ExportCSV)
}
