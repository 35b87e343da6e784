package sqldb

import (
	"strings"

	"leveltx-service/internal/config"
)

type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectMySQL
)

func DialectFor(driver string) Dialect {
	if driver == config.DriverMySQL {
		return DialectMySQL
	}
	return DialectPostgres
}

// Rebind rewrites $n placeholders to ? for MySQL. Placeholders must
// appear in argument order.
func (d Dialect) Rebind(query string) string {
	if d != DialectMySQL {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			b.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
