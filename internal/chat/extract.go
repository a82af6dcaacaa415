package chat

import (
	"regexp"
	"strings"
)

// The fenced-block convention agreed with the model: triple-backtick, literal
// "sql", newline, query, newline, closing fence. Only the first match counts.
var sqlFence = regexp.MustCompile("(?s)```sql\n(.*?)\n```")

// extractSQL locates an embedded SQL statement in raw model output. The body
// is always the raw text unchanged; the natural-language portion keeps the
// fenced block for display. No validation of the extracted text is attempted.
func extractSQL(raw string) (body string, sql *string) {
	m := sqlFence.FindStringSubmatch(raw)
	if len(m) < 2 {
		return raw, nil
	}
	q := strings.TrimSpace(m[1])
	return raw, &q
}
