package contact

import (
	"github.com/corazawaf/libinjection-go"
)

// Screen reports whether any of the values looks like an SQL injection or
// XSS payload. The returned reason names the first detection.
func Screen(values ...string) (bool, string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(v); isSQLi {
			return true, "sqli:" + fingerprint
		}
		if libinjection.IsXSS(v) {
			return true, "xss"
		}
	}
	return false, ""
}
