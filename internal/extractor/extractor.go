package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/quillhq/scrivener/internal/llm"
)

// Completer is the model-provider collaborator.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, profile llm.Profile) (string, error)
}

type Extractor struct {
	llm    Completer
	logger *slog.Logger
}

func New(c Completer, logger *slog.Logger) *Extractor {
	return &Extractor{llm: c, logger: logger}
}

// Fields asks the model for a constrained JSON object and parses it
// defensively. A malformed response is not an error: invoice metadata is an
// enhancement, so the result degrades to zero-value fields and the offending
// text is logged. Only a transport failure is returned to the caller.
func (e *Extractor) Fields(ctx context.Context, documentText string) (InvoiceFields, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(fieldsUserPrompt, documentText)},
	}

	raw, err := e.llm.Complete(ctx, messages, llm.ExtractProfile)
	if err != nil {
		return InvoiceFields{}, fmt.Errorf("llm extraction: %w", err)
	}

	var fields InvoiceFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		e.logger.Error("failed to parse field extraction response",
			"error", err,
			"raw", raw,
		)
		return InvoiceFields{}, nil
	}

	return fields, nil
}
