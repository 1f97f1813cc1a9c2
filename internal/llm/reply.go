package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// finishReply turns the text a provider returned into the reply content.
// With a schema, a surrounding Markdown code fence is removed and the rest
// must validate.
func finishReply(req Request, text string) (json.RawMessage, error) {
	if req.Schema == nil {
		return json.RawMessage(text), nil
	}

	content := json.RawMessage(stripCodeFence(text))
	if len(content) == 0 {
		return nil, &ErrInvalidResponse{
			Content: json.RawMessage(text),
			Err:     fmt.Errorf("empty reply for schema %q", req.Schema.Name),
		}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return content, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// classifyStatus maps the HTTP status of a failed provider call. A 429
// carries the server's Retry-After, when present, so the retry decorator
// waits as asked.
func classifyStatus(status int, header http.Header, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: retryAfter(header), Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

func retryAfter(header http.Header) time.Duration {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
