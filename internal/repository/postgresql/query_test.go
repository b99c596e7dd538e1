package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	w := newWhere("e.company_id = $1")
	w.args = append(w.args, "co-1")
	w.add("e.employment_status = ?", "active")
	w.add("(u.name ILIKE ? OR e.employee_code ILIKE ?)", like(" ann "), like(" ann "))

	assert.Equal(t, "WHERE e.company_id = $1 AND e.employment_status = $2 AND (u.name ILIKE $3 OR e.employee_code ILIKE $4)", w.sql())
	assert.Equal(t, []any{"co-1", "active", "%ann%", "%ann%"}, w.args)

	assert.Equal(t, " LIMIT $5 OFFSET $6", w.page(3, 20))
	assert.Equal(t, 40, w.args[5])
}

func TestLike_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%%`, like("50%"))
	assert.Equal(t, `%emp\_01%`, like(" emp_01 "))
	assert.Equal(t, `%a\\b%`, like(`a\b`))
}

func TestWhere_Empty(t *testing.T) {
	w := newWhere()
	assert.Equal(t, "", w.sql())
	assert.Equal(t, "", w.page(1, 0))
}
