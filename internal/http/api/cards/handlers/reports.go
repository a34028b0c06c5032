package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/giftledger/giftledger/internal/export"
	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/giftledger/giftledger/internal/settings"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ReportHandler serves the summary, form options and CSV export.
type ReportHandler struct {
	svc     *ledger.Service
	maskPIN bool
	now     func() time.Time
}

// NewReportHandler constructs a ReportHandler. maskPIN hides PINs in exports.
func NewReportHandler(svc *ledger.Service, maskPIN bool) *ReportHandler {
	return &ReportHandler{svc: svc, maskPIN: maskPIN, now: time.Now}
}

// Summary returns ledger totals.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, errSummary := h.svc.Summary(c.Request.Context())
	if errSummary != nil {
		abortWithError(c, errSummary, nil)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Options returns the entry form suggestion lists.
func (h *ReportHandler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, settings.FormOptions())
}

// ExportCSV streams every card as a CSV attachment.
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	cards, errList := h.svc.Cards(c.Request.Context(), store.Filter{})
	if errList != nil {
		abortWithError(c, errList, nil)
		return
	}
	var buf bytes.Buffer
	if errWrite := export.WriteCSV(&buf, cards, export.Options{MaskPIN: h.maskPIN}); errWrite != nil {
		if errors.Is(errWrite, export.ErrNoCards) {
			c.JSON(http.StatusNotFound, gin.H{"error": errWrite.Error()})
			return
		}
		log.WithError(errWrite).Error("export csv failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
