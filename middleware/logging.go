package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/akinalp/lectern/pkg"
	"github.com/akinalp/lectern/pkg/ratelimit"
)

const RequestIDHeader = "X-Request-ID"

// statusWriter records the status code. It keeps Hijack working so
// WebSocket upgrades pass through.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

// Logging tags each request with an id (taken from X-Request-ID or
// generated), echoes it back, logs the outcome and turns panics into 500s.
func Logging(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := requestID(r)

			entry := logger.WithFields(logrus.Fields{
				"request-id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"ip":         ratelimit.ExtractIP(r),
			})

			w.Header().Set(RequestIDHeader, id)
			sw := &statusWriter{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					entry.WithFields(logrus.Fields{
						"panic": rec,
						"stack": string(debug.Stack()),
					}).Error("panic while serving request")
					if sw.status == 0 {
						pkg.ErrorWithMessage(sw, http.StatusInternalServerError, pkg.ErrInternal.Error())
					}
				}

				fields := logrus.Fields{
					"status":      sw.Status(),
					"bytes":       sw.bytes,
					"duration_ms": time.Since(start).Milliseconds(),
				}
				switch status := sw.Status(); {
				case status >= 500:
					entry.WithFields(fields).Error("request failed")
				case status >= 400:
					entry.WithFields(fields).Warn("request rejected")
				default:
					entry.WithFields(fields).Info("request completed")
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
