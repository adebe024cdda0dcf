package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ganot/neosearch/internal/gateway"
)

const maxErrorBody = 4 << 10

// statusError maps a non-2xx response onto the gateway error taxonomy,
// keeping the server's detail message.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(body))

	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			detail = d
		default:
			if raw, err := json.Marshal(d); err == nil {
				detail = string(raw)
			}
		}
	}

	var base error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		base = gateway.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		base = gateway.ErrUnauthorized
	case resp.StatusCode >= 500:
		base = gateway.ErrUnavailable
	case resp.StatusCode >= 400:
		base = gateway.ErrRejected
	default:
		base = gateway.ErrBadResponse
	}

	if detail == "" {
		return fmt.Errorf("%w: status %d", base, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", base, resp.StatusCode, detail)
}

// WriteDetail writes a FastAPI style {"detail": ...} error body.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
