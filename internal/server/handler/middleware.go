package handler

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/utils"
	"go.uber.org/zap"
)

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID tags every request with an id, reusing the caller's
// X-Request-ID when present, and logs the request once it is served.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(utils.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(utils.RequestIDHeader, id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		logger.Debug("request served",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// CORSWithOrigins allows credentialed cross-origin calls from the given
// origins. "*" allows any origin without credentials. Requests other than
// GET, HEAD and OPTIONS that carry an Origin outside the list are refused
// before they reach next.
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			_, listed := allowed[origin]
			if origin != "" {
				switch {
				case listed:
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Add("Vary", "Origin")
				case allowAny:
					w.Header().Set("Access-Control-Allow-Origin", "*")
				}
				if listed || allowAny {
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
					w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
				}
			}

			switch r.Method {
			case http.MethodOptions:
				w.WriteHeader(http.StatusNoContent)
				return
			case http.MethodGet, http.MethodHead:
			default:
				if origin != "" && !listed && !allowAny {
					logger.Warn("cross-origin request refused",
						zap.String("origin", origin),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					utils.WriteError(w, "forbidden_origin", "origin is not allowed", http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON refuses bodies that are not application/json. Browsers only
// send such bodies cross-origin after a preflight.
func RequireJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			utils.WriteError(w, "unsupported_media_type", "body must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next(w, r)
	}
}
