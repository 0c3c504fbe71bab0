package middlewares

import (
	"net/http"
	"time"

	"custody-processor/utility/logger"
)

// Middleware ... Middleware struct
type Middleware struct {
	next http.Handler
}

// NewMiddleware ... Creates a middleware instance
func NewMiddleware(handler http.Handler) *Middleware {
	return &Middleware{handler}
}

// Build ... Build middleware functions
func (m *Middleware) Build() http.Handler {
	return m.next
}

// LogAPIRequests ... Logs every incoming request
func (m *Middleware) LogAPIRequests() *Middleware {
	nextHandler := http.HandlerFunc(func(responseWriter http.ResponseWriter, requestReader *http.Request) {
		logger.Info("Incoming request from : %s with IP : %s to : %s", requestReader.UserAgent(), requestReader.RemoteAddr, requestReader.URL.Path)
		m.next.ServeHTTP(responseWriter, requestReader)
	})
	return &Middleware{nextHandler}
}

// Timeout ... Fails requests that outlive the configured handling window
func (m *Middleware) Timeout(requestTimeout int) *Middleware {
	timeout := time.Duration(requestTimeout) * time.Second
	return &Middleware{http.TimeoutHandler(m.next, timeout, "Request timed out")}
}
