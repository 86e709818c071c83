package todoapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"todo/internal/service"
)

// maxPlainMessage caps a non-JSON error body shown to the user, in bytes.
const maxPlainMessage = 200

// wrapTransportError maps a failed round trip to a network error with a friendly message.
func wrapTransportError(err error) error {
	msg := err.Error()

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		msg = "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = "request timed out"
	}
	return &service.Error{Kind: service.KindNetwork, Message: msg, Err: err}
}

// decodeError maps a non-2xx response to a tagged error.
// A 401 is an auth failure only for authenticated calls; on login it just
// means the credentials were wrong.
func decodeError(status int, body []byte, authenticated bool) error {
	msg, fields := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized && authenticated:
		return &service.Error{Kind: service.KindAuth, Status: status, Message: msg, Fields: fields}
	case status >= 400 && status < 500:
		return &service.Error{Kind: service.KindValidation, Status: status, Message: msg, Fields: fields}
	default:
		return &service.Error{Kind: service.KindUnknown, Status: status, Message: msg, Fields: fields}
	}
}

// errorMessage extracts a readable message from an error body.
// Handles {"detail": ...}, {"message": ...}, field maps like
// {"title": ["This field is required."]} and bare lists.
func errorMessage(body []byte) (string, map[string][]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		return strings.Join(list, " "), nil
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		if strings.HasPrefix(trimmed, "<") {
			return "", nil // HTML error page
		}
		return truncate(trimmed, maxPlainMessage), nil
	}

	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, nil
		}
	}

	fields := make(map[string][]string)
	keys := make([]string, 0, len(obj))
	for key, val := range obj {
		msgs := stringsOf(val)
		if len(msgs) == 0 {
			continue
		}
		fields[key] = msgs
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		text := strings.Join(fields[key], " ")
		if key == "non_field_errors" {
			parts = append(parts, text)
			continue
		}
		parts = append(parts, key+": "+text)
	}
	if len(fields) == 0 {
		fields = nil
	}
	return strings.Join(parts, "; "), fields
}

func stringsOf(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
