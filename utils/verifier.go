// utils/verifier.go
package utils

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
)

var (
	// Common email typos
	commonTypos = map[string]string{
		"gmai.com":   "gmail.com",
		"gmal.com":   "gmail.com",
		"gmail.co":   "gmail.com",
		"yaho.com":   "yahoo.com",
		"hotmai.com": "hotmail.com",
		"outlok.com": "outlook.com",
	}
)

// NormalizeEmail trims and lowercases an address the way contacts are stored
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerifyContactEmail decides whether a list contact is deliverable on syntax
// alone. No DNS or SMTP probing is done.
func VerifyContactEmail(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}

	local, domain, _ := strings.Cut(email, "@")
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("invalid email domain: %s", domain)
	}
	if suggested, ok := commonTypos[domain]; ok {
		return fmt.Errorf("possible typo, did you mean %s@%s?", local, suggested)
	}
	return nil
}
