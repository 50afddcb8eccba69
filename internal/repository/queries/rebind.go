// Package queries holds the SQL of the store, written with '?' placeholders.
package queries

import (
	"strconv"
	"strings"
)

// Rebind переписывает '?' в $1..$n для postgres. Литералы в кавычках не трогаем.
func Rebind(query string) string {
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
