package models

import (
	"github.com/tidwall/gjson"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST /api/chat.
// Only one of Message or Error is expected to be set.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ChatReply is the success body written by the relay. The message key is
// present even when the reply is empty.
type ChatReply struct {
	Message string `json:"message"`
}

// HasMessage reports whether the response carries a reply.
func (r *ChatResponse) HasMessage() bool {
	return r != nil && r.Message != ""
}

// HasError reports whether the response carries an application error.
func (r *ChatResponse) HasError() bool {
	return r != nil && r.Error != ""
}

// JSON paths for chat payloads.
const (
	PathMessage = "message"
	PathError   = "error"
)

// ParseChatResponse extracts the reply and error fields from a JSON body.
// Fields that are absent, null, false or empty count as missing; non-string
// values keep their raw JSON text. ok is false when body is not valid JSON.
func ParseChatResponse(body []byte) (resp *ChatResponse, ok bool) {
	if !gjson.ValidBytes(body) {
		return &ChatResponse{}, false
	}

	parsed := gjson.ParseBytes(body)
	return &ChatResponse{
		Message: fieldText(parsed.Get(PathMessage)),
		Error:   fieldText(parsed.Get(PathError)),
	}, true
}

// fieldText returns the display text of a truthy JSON value.
func fieldText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		if v.Num == 0 {
			return ""
		}
		return v.Raw
	case gjson.True:
		return v.Raw
	case gjson.JSON:
		return v.Raw
	default:
		// Null, False, or missing
		return ""
	}
}
