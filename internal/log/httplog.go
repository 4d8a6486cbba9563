package log

import (
	"time"
)

// LogHTTPRequest records a served HTTP request. Server-side failures are logged at error
// level, everything else at info.
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr, userAgent string) {
	fields := []interface{}{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size", size,
		"remote_addr", remoteAddr,
		"user_agent", userAgent,
	}

	if status >= 500 {
		Errorw("http request failed", fields...)
		return
	}
	Infow("http request", fields...)
}
