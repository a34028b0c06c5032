package handlers

import (
	"net/http"
	"strings"

	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/giftledger/giftledger/internal/models"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/giftledger/giftledger/internal/util"
	"github.com/gin-gonic/gin"
)

// CardHandler serves the card ledger endpoints.
type CardHandler struct {
	svc *ledger.Service
}

// NewCardHandler constructs a CardHandler.
func NewCardHandler(svc *ledger.Service) *CardHandler {
	return &CardHandler{svc: svc}
}

// List returns cards newest first with PINs masked.
func (h *CardHandler) List(c *gin.Context) {
	filter := store.Filter{
		Brand:   strings.TrimSpace(c.Query("brand")),
		Pending: strings.TrimSpace(c.Query("pending")),
		Query:   strings.TrimSpace(c.Query("q")),
	}
	cards, errList := h.svc.Cards(c.Request.Context(), filter)
	if errList != nil {
		abortWithError(c, errList, nil)
		return
	}
	out := make([]gin.H, 0, len(cards))
	for i := range cards {
		out = append(out, formatCard(&cards[i], true))
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

// Get returns one card with its PIN in clear for editing.
func (h *CardHandler) Get(c *gin.Context) {
	card, errGet := h.svc.Card(c.Request.Context(), c.Param("number"))
	if errGet != nil {
		abortWithError(c, errGet, nil)
		return
	}
	if card == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": store.MsgNotFound})
		return
	}
	c.JSON(http.StatusOK, formatCard(card, false))
}

// Create validates and stores a new card.
func (h *CardHandler) Create(c *gin.Context) {
	var body ledger.CardInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	card, errCreate := h.svc.Create(c.Request.Context(), body)
	if errCreate != nil {
		abortWithError(c, errCreate, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": store.MsgAdded, "card": formatCard(card, false)})
}

// Update replaces the mutable fields of the card named in the path.
func (h *CardHandler) Update(c *gin.Context) {
	var body ledger.CardInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	card, errEdit := h.svc.Edit(c.Request.Context(), c.Param("number"), body)
	if errEdit != nil {
		abortWithError(c, errEdit, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": store.MsgUpdated, "card": formatCard(card, false)})
}

// Delete removes a card. Deleting a missing card still succeeds.
func (h *CardHandler) Delete(c *gin.Context) {
	if errDelete := h.svc.Remove(c.Request.Context(), c.Param("number")); errDelete != nil {
		abortWithError(c, errDelete, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": store.MsgDeleted})
}

// bulkSaveRequest carries the edited rows of the table view.
type bulkSaveRequest struct {
	Cards []ledger.CardInput `json:"cards"`
}

// BulkSave edits every row in order and stops at the first failure.
func (h *CardHandler) BulkSave(c *gin.Context) {
	var body bulkSaveRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	saved, errSave := h.svc.BulkSave(c.Request.Context(), body.Cards)
	if errSave != nil {
		abortWithError(c, errSave, gin.H{"saved": saved})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All changes saved successfully!", "saved": saved})
}

// bulkDeleteRequest lists the card numbers to remove.
type bulkDeleteRequest struct {
	CardNumbers []string `json:"card_numbers"`
}

// BulkDelete removes every listed card and stops at the first failure.
func (h *CardHandler) BulkDelete(c *gin.Context) {
	var body bulkDeleteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	deleted, errDelete := h.svc.BulkDelete(c.Request.Context(), body.CardNumbers)
	if errDelete != nil {
		abortWithError(c, errDelete, gin.H{"deleted": deleted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": store.MsgDeleted, "deleted": deleted})
}

// formatCard maps a card into a response payload.
func formatCard(card *models.GiftCard, maskPIN bool) gin.H {
	pin := models.StringValue(card.PIN)
	if maskPIN {
		pin = util.MaskPIN(pin)
	}
	item := gin.H{
		"card_number":      card.CardNumber,
		"card_holder":      card.CardHolder,
		"brand":            card.Brand,
		"pin":              pin,
		"denomination":     card.Denomination,
		"purchase_price":   card.PurchasePrice,
		"expected_price":   card.ExpectedPrice,
		"profit":           card.Profit,
		"source":           card.Source,
		"card_image_path":  card.ImagePath(),
		"purchase_date":    card.PurchaseDate,
		"created_at":       card.CreatedAt,
		"pending":          card.Pending,
		"sold_date":        models.StringValue(card.SoldDate),
		"payment_received": card.PaymentReceived,
		"payment_mode":     models.StringValue(card.PaymentMode),
	}
	return item
}
