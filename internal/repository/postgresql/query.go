package postgresql

import (
	"fmt"
	"strings"
)

// where collects AND-ed conditions and their positional arguments. Each "?"
// in a condition is replaced with the next $n placeholder.
type where struct {
	conditions []string
	args       []any
}

func newWhere(conditions ...string) *where {
	return &where{conditions: conditions}
}

func (w *where) add(condition string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conditions = append(w.conditions, condition)
}

// arg appends a value and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) sql() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// page renders LIMIT/OFFSET for a 1-based page. The values are bound as
// arguments, so page must be called after every condition was added.
func (w *where) page(page, limit int) string {
	if limit < 1 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %s OFFSET %s", w.arg(limit), w.arg((page-1)*limit))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// like builds a substring pattern. Wildcards in s match literally under
// the default LIKE escape character.
func like(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
