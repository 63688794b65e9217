package gatewayapi

import (
	"encoding/json"
	"fmt"
)

// rateLimitBody builds the 429 body, matching the source's
// {"code": 429, "message": "Too many requests from <ip>. Please try again
// after <n> seconds."} shape.
func rateLimitBody(clientIP string, retryAfterSeconds int) []byte {
	body := struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{
		Code:    429,
		Message: fmt.Sprintf("Too many requests from %s. Please try again after %d seconds.", clientIP, retryAfterSeconds),
	}
	raw, _ := json.Marshal(body)
	return raw
}
