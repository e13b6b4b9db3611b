package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RealClientIP extracts the client IP, preferring proxy headers over the
// socket address: X-Real-IP first, then the left-most X-Forwarded-For hop,
// then gin's own resolution.
func RealClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	return c.ClientIP()
}

// TruncateUserAgent trims a User-Agent header to fit the login log column
func TruncateUserAgent(ua string) string {
	const max = 255
	if len(ua) > max {
		return ua[:max]
	}
	return ua
}
