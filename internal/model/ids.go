// Package model holds the identifiers shared by the server and CLI.
package model

import (
	"fmt"
	"strconv"
)

// ParseArticleID parses a decimal article id. Ids must be non-negative.
func ParseArticleID(s string) (int, error) {
	return parseIndex("article id", s)
}

// ParseSequence parses a decimal comment sequence number.
func ParseSequence(s string) (int, error) {
	return parseIndex("sequence", s)
}

func parseIndex(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", what, s)
	}
	return n, nil
}
