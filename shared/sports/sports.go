// Package sports holds the closed mapping between public sport codes and
// the numeric sport ids used on stored documents.
package sports

import (
	"fmt"
	"strings"
)

// Sport is a public sport code as it appears in request paths.
type Sport string

const (
	NFL   Sport = "nfl"
	NBA   Sport = "nba"
	MLB   Sport = "mlb"
	NHL   Sport = "nhl"
	NCAAF Sport = "ncaaf"
	NCAAB Sport = "ncaab"
)

// sportIDs is the single source of truth for code <-> id resolution. The
// numeric ids match the upstream data feed and never change.
var sportIDs = map[Sport]int{
	NFL:   2,
	NBA:   4,
	MLB:   3,
	NHL:   6,
	NCAAF: 1,
	NCAAB: 5,
}

// Parse resolves a sport code (case-insensitive) to its Sport value.
func Parse(code string) (Sport, error) {
	s := Sport(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := sportIDs[s]; !ok {
		return "", fmt.Errorf("unknown sport code %q", code)
	}
	return s, nil
}

// ID returns the numeric sport id used on game and betting documents.
func (s Sport) ID() (int, error) {
	id, ok := sportIDs[s]
	if !ok {
		return 0, fmt.Errorf("unknown sport %q", string(s))
	}
	return id, nil
}

// String returns the public code.
func (s Sport) String() string {
	return string(s)
}

// All returns every supported sport code.
func All() []Sport {
	return []Sport{NFL, NBA, MLB, NHL, NCAAF, NCAAB}
}
