package http

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LoopbackOnlyMiddleware rejects requests that do not originate from the local machine.
func LoopbackOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _, errSplit := net.SplitHostPort(c.Request.RemoteAddr)
		if errSplit != nil {
			host = c.Request.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			log.Warnf("rejected request from %s", c.Request.RemoteAddr)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Local access only"})
			return
		}
		c.Next()
	}
}

// RequestLogMiddleware logs one line per request with its status and latency.
func RequestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request served")
	}
}
