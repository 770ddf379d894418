package repository

import (
	"fmt"
	"strings"
)

// predicates collects optional WHERE conditions. Conditions are written with "?" and are
// renumbered to "$n" on add, so values only ever travel as bind arguments.
type predicates struct {
	clauses []string
	args    []any
}

// newPredicates starts numbering after the query's own positional arguments.
func newPredicates(args ...any) *predicates {
	return &predicates{args: args}
}

// add panics when the placeholder count and the argument count differ: that is a programming
// error, not a runtime condition.
func (p *predicates) add(clause string, args ...any) *predicates {
	if n := strings.Count(clause, "?"); n != len(args) {
		panic(fmt.Sprintf("predicate %q has %d placeholders but %d arguments", clause, n, len(args)))
	}

	var b strings.Builder
	next := len(p.args) + 1
	for _, r := range clause {
		if r == '?' {
			fmt.Fprintf(&b, "$%d", next)
			next++
			continue
		}
		b.WriteRune(r)
	}

	p.clauses = append(p.clauses, b.String())
	p.args = append(p.args, args...)
	return p
}

// addIf adds the clause only when cond holds.
func (p *predicates) addIf(cond bool, clause string, args ...any) *predicates {
	if !cond {
		return p
	}
	return p.add(clause, args...)
}

// where renders "WHERE a AND b", or an empty string without conditions.
func (p *predicates) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.clauses, " AND ")
}

func (p *predicates) arguments() []any {
	return p.args
}

// next is the placeholder for an argument appended after the predicates, e.g. LIMIT.
func (p *predicates) next(arg any) string {
	p.args = append(p.args, arg)
	return fmt.Sprintf("$%d", len(p.args))
}
