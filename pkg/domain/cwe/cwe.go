// Package cwe provides parsing and normalization of Common Weakness
// Enumeration identifiers.
package cwe

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// idRegex matches a canonical CWE identifier.
var idRegex = regexp.MustCompile(`^CWE-(\d+)$`)

// ID is a canonical CWE identifier string, e.g. "CWE-89".
// The zero value means "unclassified".
type ID string

// None is the unclassified CWE identifier.
const None ID = ""

// Parse normalizes a raw CWE reference into a canonical ID.
// Accepted inputs: "CWE-89", "cwe-89", "89". An empty input yields
// None without error; anything else is rejected.
func Parse(raw string) (ID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return None, nil
	}

	upper := strings.ToUpper(s)
	if idRegex.MatchString(upper) {
		return normalize(upper)
	}

	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return ID(fmt.Sprintf("CWE-%d", n)), nil
	}

	return None, fmt.Errorf("invalid CWE identifier %q", raw)
}

// normalize strips leading zeros from the numeric part so that
// "CWE-089" and "CWE-89" compare equal.
func normalize(s string) (ID, error) {
	m := idRegex.FindStringSubmatch(s)
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return None, fmt.Errorf("invalid CWE identifier %q", s)
	}
	return ID(fmt.Sprintf("CWE-%d", n)), nil
}

// MustParse is like Parse but panics on invalid input.
// Intended for static tables in tool adapters.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// IsValid reports whether the ID is a well-formed canonical identifier.
func (id ID) IsValid() bool {
	return idRegex.MatchString(string(id))
}

// Number returns the numeric part of the identifier, or 0 for None.
func (id ID) Number() int {
	m := idRegex.FindStringSubmatch(string(id))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id == None {
		return "CWE-unknown"
	}
	return string(id)
}

// Set is an unordered collection of CWE identifiers.
type Set map[ID]struct{}

// NewSet builds a Set from identifiers, ignoring None.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id != None {
			s[id] = struct{}{}
		}
	}
	return s
}

// Contains reports whether id is a member of the set.
// Membership is exact string equality; there is no hierarchy or
// superclass reasoning.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending numeric order.
func (s Set) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Number() < ids[j].Number()
	})
	return ids
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}
