package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// emailPattern accepts local@domain.tld where the tld is two or more letters
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// socialDomains are rejected when they appear anywhere in the address.
// Spreadsheets scraped from profiles often carry profile URLs in the email column.
var socialDomains = []string{"linkedin.com", "facebook.com", "twitter.com"}

// IsValidEmail reports whether address is a well-formed, non-social address.
// Input is lowercased and trimmed before checking. No DNS lookups are made.
func IsValidEmail(address string) bool {
	email := strings.ToLower(strings.TrimSpace(address))
	if email == "" {
		return false
	}

	for _, domain := range socialDomains {
		if strings.Contains(email, domain) {
			return false
		}
	}

	return emailPattern.MatchString(email)
}

// NormalizeName collapses whitespace runs and title-cases every word
func NormalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// titleWord upper-cases the first rune and lower-cases the rest
func titleWord(w string) string {
	runes := []rune(w)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}

// ValidateBatchSize parses and checks a batch size given on the command line
func ValidateBatchSize(size string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(size))
	if err != nil {
		return 0, fmt.Errorf("invalid batch size: %q", size)
	}

	if n <= 0 {
		return 0, fmt.Errorf("invalid batch size: %d: batch size must be positive", n)
	}
	return n, nil
}
