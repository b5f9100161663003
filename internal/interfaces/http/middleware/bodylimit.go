package middleware

import (
	"net/http"

	"github.com/agrifin/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects request bodies larger than maxBytes. Advance requests
// and repayments are small JSON documents; anything near the limit is a
// client defect or abuse. Declared lengths are rejected up front, streamed
// bodies are cut off by MaxBytesReader when a handler reads them.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(
					"REQUEST_TOO_LARGE",
					"Request body exceeds maximum allowed size",
					getRequestIDFromContext(c),
				))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
