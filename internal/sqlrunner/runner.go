// Package sqlrunner is the boundary to a SQL execution engine. The service
// only invokes a Runner and records the outcome; execution itself, including
// any validation or sandboxing policy, lives behind the interface.
package sqlrunner

import (
	"context"
	"encoding/json"
)

type Runner interface {
	Run(ctx context.Context, query string) (json.RawMessage, error)
}

// Placeholder stands in until a real engine is wired up. It never executes
// anything; it returns a static result object echoing the query.
type Placeholder struct{}

func (Placeholder) Run(_ context.Context, query string) (json.RawMessage, error) {
	out, err := json.Marshal(map[string]string{
		"message": "SQL execution is not implemented",
		"query":   query,
		"note":    "queries would run against the production database once an engine is wired in",
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
