package parser

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins the card's fields after trimming, lowercasing, and
// normalizing line endings, separated by newlines so adjacent fields cannot
// run together.
func Normalize(card Card) string {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.ReplaceAll(s, "\r\n", "\n")
	}
	return strings.Join([]string{norm(card.Front), norm(card.Back), norm(card.Context)}, "\n")
}

// Checksum returns the hex SHA-256 of the normalized card content. Imports
// use it to recognize a card that already exists regardless of formatting.
func Checksum(card Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
