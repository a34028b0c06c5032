package handlers

import (
	"errors"
	"net/http"

	"github.com/giftledger/giftledger/internal/attachment"
	"github.com/giftledger/giftledger/internal/ledger"
	"github.com/giftledger/giftledger/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// statusFor maps a ledger error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attachment.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, attachment.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ledger.ErrAttachmentsDisabled):
		return http.StatusServiceUnavailable
	}
	switch store.KindOf(err) {
	case store.KindValidation:
		return http.StatusBadRequest
	case store.KindDuplicateKey:
		return http.StatusConflict
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the text shown to the user for err.
func errorMessage(err error) string {
	var batchErr *ledger.BatchError
	if errors.As(err, &batchErr) {
		return batchErr.Error()
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.Message
	}
	return err.Error()
}

// abortWithError writes {"error": message} and logs server-side failures.
func abortWithError(c *gin.Context, err error, extra gin.H) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
	}
	body := gin.H{"error": errorMessage(err)}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
