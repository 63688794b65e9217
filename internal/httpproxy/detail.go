package httpproxy

import "encoding/json"

// extractDetail pulls a "detail" field out of an upstream JSON error body,
// mirroring the source's response.json().get("detail", "Unknown error").
func extractDetail(body []byte) (string, bool) {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	if payload.Detail == "" {
		return "", false
	}
	return payload.Detail, true
}
