package postgres

import (
	"fmt"
	"strings"
)

// setList accumulates "column = $n" assignments for the fields present in a
// patch. Placeholders are numbered after any arguments already collected.
type setList struct {
	cols []string
	args []interface{}
}

func (s *setList) add(col string, v interface{}) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

// addExcluded records an ON CONFLICT assignment taken from the proposed row.
func (s *setList) addExcluded(col string) {
	s.cols = append(s.cols, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
}

func (s *setList) empty() bool { return len(s.cols) == 0 }

func (s *setList) String() string { return strings.Join(s.cols, ", ") }

// next returns the placeholder for one more trailing argument.
func (s *setList) next(v interface{}) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}

// whereList builds an AND-joined filter with numbered placeholders.
type whereList struct {
	conds []string
	args  []interface{}
}

// add appends a condition; each "?" in cond is replaced by the next placeholder.
func (w *whereList) add(cond string, vals ...interface{}) {
	for _, v := range vals {
		w.args = append(w.args, v)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *whereList) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
