package middleware

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/chainwage/payroll-api/internal/handler"
	"github.com/chainwage/payroll-api/internal/logging"
)

type cachedResponse struct {
	requestHash string
	statusCode  int
	body        []byte
}

// Idempotency replays the recorded response when a request carries an
// Idempotency-Key already seen with the same body, so a client retry
// cannot disburse a payroll batch twice. The header is optional: the
// public contract predates it, and requests without one pass through.
// The cache is in-process with a TTL; entries do not survive a restart.
func Idempotency(size int, ttl time.Duration) func(http.Handler) http.Handler {
	cache := expirable.NewLRU[string, cachedResponse](size, nil, ttl)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondError(w, errors.New("failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			if cached, ok := cache.Get(key); ok {
				if cached.requestHash != reqHash {
					handler.RespondError(w, errors.New("idempotency key reused with a different request"))
					return
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(cached.statusCode)
				if _, err := w.Write(cached.body); err != nil {
					log := logging.FromContext(r.Context())
					log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
				}
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			cache.Add(key, cachedResponse{
				requestHash: reqHash,
				statusCode:  rec.statusCode,
				body:        rec.body.Bytes(),
			})
		})
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
