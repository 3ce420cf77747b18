package store

import (
	"fmt"
	"strings"
)

// InClause builds a parameterized "IN ($n, $n+1, ...)" fragment and the
// matching argument slice, starting at placeholder index start. Business
// values are never interpolated into SQL text.
func InClause[T any](start int, values []T) (string, []any) {
	if len(values) == 0 {
		// An empty IN list matches nothing; NULL keeps the clause valid.
		return "(NULL)", nil
	}

	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = v
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}
