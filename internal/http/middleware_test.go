package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func runRequestWithMiddleware(t *testing.T, middleware gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware)
	router.GET("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	responseRecorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(responseRecorder, req)

	return responseRecorder
}

func TestLoopbackOnlyMiddlewareAllowsLocalRequests(t *testing.T) {
	for _, addr := range []string{"127.0.0.1:50000", "[::1]:50000"} {
		responseRecorder := runRequestWithMiddleware(t, LoopbackOnlyMiddleware(), addr)
		if responseRecorder.Code != http.StatusNoContent {
			t.Fatalf("%s: expected status 204, got %d", addr, responseRecorder.Code)
		}
	}
}

func TestLoopbackOnlyMiddlewareRejectsRemoteRequests(t *testing.T) {
	for _, addr := range []string{"192.168.1.20:50000", "garbage"} {
		responseRecorder := runRequestWithMiddleware(t, LoopbackOnlyMiddleware(), addr)
		if responseRecorder.Code != http.StatusForbidden {
			t.Fatalf("%s: expected status 403, got %d", addr, responseRecorder.Code)
		}
	}
}

func TestRequestLogMiddlewarePassesThrough(t *testing.T) {
	responseRecorder := runRequestWithMiddleware(t, RequestLogMiddleware(), "127.0.0.1:1")
	if responseRecorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", responseRecorder.Code)
	}
}
