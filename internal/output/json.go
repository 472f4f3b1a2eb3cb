package output

import (
	"encoding/json"
	"io"
	"time"
)

// ErrorResponse is the JSON shape of a failed command.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// SuccessResponse is the JSON shape of a command with no other output.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NewSuccess returns a SuccessResponse.
func NewSuccess(msg string) SuccessResponse {
	return SuccessResponse{Success: true, Message: msg}
}

// JSON outputs data as JSON to the formatter's writer
func (f *Formatter) JSON(v any) error {
	return WriteJSON(f.writer, v, f.pretty)
}

// WriteJSON writes data as JSON to the given writer
func WriteJSON(w io.Writer, v any, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatTime formats a time for JSON output as ISO 8601
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
