package order

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
)

// CodePrefix starts every order code.
const CodePrefix = "SHIDS"

// codeAlphabet is the 36-character alphabet for the random suffix.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeSuffixLen = 4

var codePattern = regexp.MustCompile(`^` + CodePrefix + `-[A-Z0-9]{4}$`)

// NewCode generates an order code of the form SHIDS-XXXX. The suffix is
// drawn uniformly from the 36-character alphabet with crypto/rand.
func NewCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	suffix := make([]byte, codeSuffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "draw random index")
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return CodePrefix + "-" + string(suffix), nil
}

// NormalizeCode canonicalizes a raw order code: trimmed, upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is a well-formed, already-normalized
// order code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
