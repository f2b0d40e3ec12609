package db

import (
	"strconv"
	"strings"
)

// Placeholder is the bind-parameter style a driver understands.
type Placeholder int

const (
	// PlaceholderDefault defers to the registered driver.
	PlaceholderDefault Placeholder = iota
	// PlaceholderDollar is PostgreSQL style: $1, $2, ... (also accepted by SQLite).
	PlaceholderDollar
	// PlaceholderQuestion is MySQL style: positional ?.
	PlaceholderQuestion
)

func (p Placeholder) String() string {
	switch p {
	case PlaceholderDollar:
		return "dollar"
	case PlaceholderQuestion:
		return "question"
	}
	return "default"
}

// Rebind rewrites a statement written with $N placeholders into the style p
// expects. For PlaceholderQuestion every $N becomes ? and args is expanded so
// that a parameter referenced twice is bound twice. Quoted literals are left
// untouched.
func Rebind(p Placeholder, query string, args []any) (string, []any) {
	if p != PlaceholderQuestion || !strings.Contains(query, "$") {
		return query, args
	}
	var (
		b     strings.Builder
		order []int
	)
	b.Grow(len(query))
	scanPlaceholders(query, func(lit string, idx int) {
		b.WriteString(lit)
		if idx > 0 {
			b.WriteByte('?')
			order = append(order, idx)
		}
	})
	return b.String(), expandArgs(order, args)
}

// RebindArgs returns only the argument list Rebind would produce for query.
func RebindArgs(p Placeholder, query string, args []any) []any {
	if p != PlaceholderQuestion || !strings.Contains(query, "$") {
		return args
	}
	var order []int
	scanPlaceholders(query, func(_ string, idx int) {
		if idx > 0 {
			order = append(order, idx)
		}
	})
	return expandArgs(order, args)
}

func expandArgs(order []int, args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, 0, len(order))
	for _, idx := range order {
		if idx-1 < len(args) {
			out = append(out, args[idx-1])
		}
	}
	return out
}

// scanPlaceholders walks query and calls emit with each literal chunk and the
// 1-based index of the $N placeholder that follows it (0 for the trailing
// chunk). Text inside single or double quotes is never treated as a
// placeholder.
func scanPlaceholders(query string, emit func(lit string, idx int)) {
	var quote byte
	last := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '$':
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j == i+1 {
				continue
			}
			n, err := strconv.Atoi(query[i+1 : j])
			if err != nil || n == 0 {
				continue
			}
			emit(query[last:i], n)
			last = j
			i = j - 1
		}
	}
	emit(query[last:], 0)
}
