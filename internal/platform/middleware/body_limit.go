package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit rejects request bodies over maxSize with HTTP 413. An evaluate
// payload is a few kilobytes of diagnoses and scores, so the cap mostly
// guards against a misconfigured client streaming at the API.
//
// maxSize accepts "512K", "1M", "1G" style strings; a bare number is bytes.
func BodyLimit(maxSize string) echo.MiddlewareFunc {
	limit := parseLimit(maxSize)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			body := c.Request().Body
			if body == nil || body == http.NoBody {
				return next(c)
			}

			// Declared length lets us refuse before reading anything.
			if c.Request().ContentLength > limit {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
					"error": fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit),
				})
			}

			// Chunked or lying clients are caught while the handler reads.
			c.Request().Body = &cappedBody{inner: body, remaining: limit}
			return next(c)
		}
	}
}

type cappedBody struct {
	inner     io.ReadCloser
	remaining int64
	exceeded  bool
}

func (r *cappedBody) Read(p []byte) (int, error) {
	if r.exceeded {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}

	// Read one byte past the allowance so an exactly-at-limit body passes.
	toRead := int64(len(p))
	if toRead > r.remaining+1 {
		toRead = r.remaining + 1
	}

	n, err := r.inner.Read(p[:toRead])
	r.remaining -= int64(n)
	if r.remaining < 0 {
		r.exceeded = true
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return n, err
}

func (r *cappedBody) Close() error { return r.inner.Close() }

// parseLimit turns "10M" into bytes. Unparseable input falls back to 1 MB
// rather than failing server startup.
func parseLimit(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 1 << 20
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "G") || strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = strings.TrimRight(s, "GB")
	case strings.HasSuffix(s, "M") || strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = strings.TrimRight(s, "MB")
	case strings.HasSuffix(s, "K") || strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = strings.TrimRight(s, "KB")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 1 << 20
	}
	return n * multiplier
}
