package sqlstore

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-cmswidgets/pkg/model"
	"github.com/goliatone/go-cmswidgets/pkg/store"
)

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Question renders "?" placeholders (SQLite, MySQL).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Statement is a query plus its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

// GetStatement selects id and label for a single-record lookup.
func GetStatement(lookup store.Lookup, ph Placeholder) Statement {
	if ph == nil {
		ph = Question
	}
	m := lookup.Model
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(quoteIdent(m.PK()))
	b.WriteString(", ")
	b.WriteString(quoteIdent(m.Label()))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(m.TableName()))
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(lookup.Column))
	b.WriteString(" = ")
	b.WriteString(ph(1))
	b.WriteString(" LIMIT 1")
	return Statement{SQL: b.String(), Args: []any{lookup.Key}}
}

// ListStatement selects id and label for every row matching conditions and
// containing search in its label, ordered by label.
func ListStatement(m model.Model, conditions []store.Condition, search string, limit int, ph Placeholder) Statement {
	if ph == nil {
		ph = Question
	}
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT ")
	b.WriteString(quoteIdent(m.PK()))
	b.WriteString(", ")
	b.WriteString(quoteIdent(m.Label()))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(m.TableName()))

	clauses := make([]string, 0, len(conditions)+1)
	for _, condition := range conditions {
		if len(condition.Values) == 0 {
			continue
		}
		marks := make([]string, 0, len(condition.Values))
		for _, value := range condition.Values {
			args = append(args, value)
			marks = append(marks, ph(len(args)))
		}
		if len(marks) == 1 {
			clauses = append(clauses, quoteIdent(condition.Column)+" = "+marks[0])
			continue
		}
		clauses = append(clauses, quoteIdent(condition.Column)+" IN ("+strings.Join(marks, ", ")+")")
	}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		clauses = append(clauses, "LOWER("+quoteIdent(m.Label())+") LIKE "+ph(len(args)))
	}
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(quoteIdent(m.Label()))
	if limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	}
	return Statement{SQL: b.String(), Args: args}
}

func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
