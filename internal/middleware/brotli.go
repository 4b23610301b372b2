package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// brotliMinLength is the smallest body worth compressing. Tiny JSON envelopes
// gain nothing from the br encoding.
const brotliMinLength = 1024

// brWriter buffers the response until it knows whether compression pays off.
// Bodies under the threshold pass through uncompressed.
type brWriter struct {
	gin.ResponseWriter
	br        *brotli.Writer
	pending   []byte
	setHeader sync.Once
	encoded   bool
}

func (w *brWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	if len(w.pending) < brotliMinLength {
		return len(p), nil
	}

	w.setHeader.Do(func() {
		w.encoded = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.br.Write(w.pending)
	w.pending = w.pending[:0]
	return n, err
}

func (w *brWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush is invoked by streaming endpoints. Whatever is buffered goes out as
// plain text, then the flush is forwarded.
func (w *brWriter) Flush() {
	_ = w.drain()
	w.ResponseWriter.Flush()
}

func (w *brWriter) drain() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = w.pending[:0]
	return err
}

// Brotli compresses response bodies for clients that accept the br encoding.
// SSE and WebSocket requests pass through untouched, since both break under
// buffered compression.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStreaming(c) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		defer func() {
			if err := w.drain(); err != nil {
				_ = c.Error(err)
			}
			if w.encoded {
				w.br.Close()
			}
		}()

		c.Writer = w
		c.Next()
	}
}

func isStreaming(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
