// file: internal/server/logger.go
// version: 2.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package server

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/server/middleware"
)

// OperationLogger tracks the lifecycle of a handler operation
type OperationLogger struct {
	handler   string
	method    string
	path      string
	startTime time.Time
	requestID string
	details   map[string]any
}

// NewOperationLogger creates an operation logger for the current request
func NewOperationLogger(handler string, c *gin.Context) *OperationLogger {
	return &OperationLogger{
		handler:   handler,
		method:    c.Request.Method,
		path:      c.Request.URL.Path,
		startTime: time.Now(),
		requestID: middleware.GetRequestID(c),
		details:   make(map[string]any),
	}
}

// AddDetail adds a contextual detail to the operation log
func (ol *OperationLogger) AddDetail(key string, value any) {
	ol.details[key] = value
}

// LogSuccess logs the successful completion of the operation
func (ol *OperationLogger) LogSuccess(statusCode int) {
	log.Printf("[DEBUG] %s %s %s (%d) in %v%s [request-id: %s]",
		ol.handler, ol.method, ol.path, statusCode, time.Since(ol.startTime), ol.detailString(), ol.requestID)
}

// LogError logs an error that occurred during the operation
func (ol *OperationLogger) LogError(statusCode int, err error) {
	log.Printf("[ERROR] %s %s %s (%d) in %v: %v%s [request-id: %s]",
		ol.handler, ol.method, ol.path, statusCode, time.Since(ol.startTime), err, ol.detailString(), ol.requestID)
}

func (ol *OperationLogger) detailString() string {
	if len(ol.details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ol.details))
	for k := range ol.details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, ol.details[k])
	}
	return " {" + strings.Join(parts, " ") + "}"
}
