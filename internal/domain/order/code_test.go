package order

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z]+-[A-Z0-9]{4}$`)

	for range 200 {
		code, err := NewCode()
		require.NoError(t, err)

		assert.Regexp(t, pattern, code)
		assert.True(t, strings.HasPrefix(code, CodePrefix+"-"))

		suffix := strings.TrimPrefix(code, CodePrefix+"-")
		for _, r := range suffix {
			assert.Contains(t, codeAlphabet, string(r))
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SHIDS-AB12", NormalizeCode("shids-ab12"))
	assert.Equal(t, "SHIDS-AB12", NormalizeCode("  SHIDS-ab12\n"))
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"SHIDS-AB12", true},
		{"SHIDS-0000", true},
		{"shids-ab12", false}, // not normalized
		{"SHIDS-AB1", false},
		{"SHIDS-AB123", false},
		{"OTHER-AB12", false},
		{"SHIDS-ab!2", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCode(tt.code), "code %q", tt.code)
	}
}
