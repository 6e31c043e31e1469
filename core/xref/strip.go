// Package xref indexes lexicon entries by headword and subentry and checks
// cross-references against that index: link targets, symmetric variants,
// homograph numbering and minor-entry back references.
//
// Every function reads a materialized record sequence. The index is a value
// built once and only read by the validators; only the homograph and minor
// entry operations edit records, and only the fields they report.
package xref

import (
	"strings"
	"unicode"
)

// StripSense removes a trailing sense number ("bank 2" becomes "bank").
// The number must be separated by whitespace, and the result must not be
// empty; otherwise the trimmed key is returned.
func StripSense(key string) string {
	key = strings.TrimSpace(key)
	digits := strings.TrimRightFunc(key, isDigit)
	if digits == key {
		return key
	}
	prefix := strings.TrimRightFunc(digits, unicode.IsSpace)
	if prefix == digits || prefix == "" {
		return key
	}
	return prefix
}

// StripHomograph removes a trailing sense number and then a trailing
// homograph number ("pal2" and "pal2 1" both become "pal"), never emptying
// the key.
func StripHomograph(key string) string {
	key = StripSense(key)
	prefix := strings.TrimSpace(strings.TrimRightFunc(key, isDigit))
	if prefix == "" {
		return key
	}
	return prefix
}

// splitNumber splits "pal2" into ("pal", "2"). The word must contain no
// digits; otherwise the value is returned whole with an empty number.
func splitNumber(value string) (word, number string) {
	word = strings.TrimRightFunc(value, isDigit)
	if word == value || word == "" || strings.IndexFunc(word, isDigit) >= 0 {
		return value, ""
	}
	return strings.TrimRightFunc(word, unicode.IsSpace), value[len(word):]
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
