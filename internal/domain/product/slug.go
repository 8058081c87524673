package product

import "strings"

// Slugify derives a URL slug from a name: lowercase, alphanumeric runs
// joined by single hyphens. Deterministic and idempotent, so repeated
// derivation from the same name always yields the same slug.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}
