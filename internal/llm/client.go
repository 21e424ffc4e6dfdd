package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const defaultTemperature = 0.2

var (
	// ErrEmptyResponse reports a provider answer without usable text.
	ErrEmptyResponse = eris.New("llm response content is empty")
	// ErrBlocked reports that the provider refused or filtered the request.
	ErrBlocked = eris.New("llm blocked the request")
)

// Completer turns a system prompt and an input document into generated text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, input string) (string, error)
}

// trimCodeFence removes a single surrounding markdown code fence, which chat
// models tend to add around whole documents.
func trimCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return trimmed
	}

	body := strings.TrimSuffix(trimmed[3:], "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		// drop the language tag on the opening line
		if !strings.ContainsAny(body[:newline], " \t") {
			body = body[newline+1:]
		}
	}

	// several blocks: the outer fences belong to different blocks
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			return trimmed
		}
	}
	return strings.TrimSpace(body)
}

func logError(logger *logrus.Logger, fields logrus.Fields, err error, message string) {
	if logger == nil || err == nil {
		return
	}

	entry := logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
