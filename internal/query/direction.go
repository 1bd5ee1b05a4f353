package query

import (
	"strings"

	"github.com/tejzpr/helpdesk/internal/apperr"
)

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

var directionAliases = func() map[string]Direction {
	m := make(map[string]Direction)
	for _, a := range []string{"ascending", "asc", "a"} {
		m[a] = Ascending
	}
	for _, a := range []string{"descending", "desc", "dsc", "d"} {
		m[a] = Descending
	}
	return m
}()

// ParseDirection resolves a case-insensitive alias. Unknown aliases are a
// bad request naming the alias.
func ParseDirection(alias string) (Direction, error) {
	d, ok := directionAliases[strings.ToLower(alias)]
	if !ok {
		return Descending, apperr.BadRequest("sortDir:%s", alias)
	}
	return d, nil
}
