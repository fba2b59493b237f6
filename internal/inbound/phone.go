// internal/inbound/phone.go
package inbound

import "strings"

// NormalizePhone strips formatting characters, keeping a leading "+".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneVariants returns the lookup forms for a number: the +-prefixed
// E.164 form and the bare digit form, since memberships may be stored
// either way.
func PhoneVariants(raw string) []string {
	n := NormalizePhone(raw)
	if n == "" {
		return nil
	}
	if strings.HasPrefix(n, "+") {
		return []string{n, strings.TrimPrefix(n, "+")}
	}
	return []string{"+" + n, n}
}
