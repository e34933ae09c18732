package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// ResponseStore persists replayable responses for idempotent request
// handling. Get returns nil on a miss.
type ResponseStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// storedResponse is the replay record for one idempotency key. The body is
// kept as raw bytes so non-JSON and empty responses replay unchanged.
type storedResponse struct {
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// captureWriter tees the response body so it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays stored responses for repeated trip mutations carrying
// the same Idempotency-Key header. It is registered on the trip routes only:
// those are the operations clients retry after a timeout. Requests without
// the header, and non-mutating methods, pass through untouched. Store
// failures degrade to normal processing.
func Idempotency(store ResponseStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		data, err := store.Get(ctx, key)
		if err == nil && data != nil {
			var stored storedResponse
			if json.Unmarshal(data, &stored) == nil {
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// 5xx responses are not replayable: the client should retry for real.
		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			data, err := json.Marshal(storedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			})
			if err == nil {
				_ = store.Set(ctx, key, data, idempotencyTTL)
			}
		}
	}
}
