package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		code     Code
		subtotal int64
		want     string
	}{
		{
			name:     "20 percent off 100",
			code:     Code{Type: TypePercentage, Value: decimal.NewFromInt(20)},
			subtotal: 100,
			want:     "20",
		},
		{
			name:     "fixed amount",
			code:     Code{Type: TypeFixed, Value: decimal.NewFromInt(15)},
			subtotal: 100,
			want:     "15",
		},
		{
			name:     "fixed amount clamped to subtotal",
			code:     Code{Type: TypeFixed, Value: decimal.NewFromInt(500)},
			subtotal: 100,
			want:     "100",
		},
		{
			name:     "100 percent wipes the subtotal",
			code:     Code{Type: TypePercentage, Value: decimal.NewFromInt(100)},
			subtotal: 349,
			want:     "349",
		},
		{
			name:     "unknown type yields zero",
			code:     Code{Type: Type("bogus"), Value: decimal.NewFromInt(10)},
			subtotal: 100,
			want:     "0",
		},
		{
			name:     "zero subtotal stays zero",
			code:     Code{Type: TypePercentage, Value: decimal.NewFromInt(20)},
			subtotal: 0,
			want:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := decimal.NewFromInt(tt.subtotal)
			got := Apply(&tt.code, subtotal)

			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"expected %s, got %s", tt.want, got)
			assert.False(t, got.GreaterThan(subtotal), "amount must not exceed subtotal")
			assert.False(t, got.IsNegative(), "amount must not be negative")
		})
	}
}

func TestCode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		wantErr error
	}{
		{
			name: "valid percentage",
			code: Code{Code: "save20", Type: TypePercentage, Value: decimal.NewFromInt(20)},
		},
		{
			name:    "percentage above 100",
			code:    Code{Code: "TOOBIG", Type: TypePercentage, Value: decimal.NewFromInt(120)},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "zero value",
			code:    Code{Code: "ZERO", Type: TypeFixed, Value: decimal.Zero},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative fixed value",
			code:    Code{Code: "NEG", Type: TypeFixed, Value: decimal.NewFromInt(-5)},
			wantErr: ErrInvalidValue,
		},
		{
			name:    "unknown type",
			code:    Code{Code: "ODD", Type: Type("bogo"), Value: decimal.NewFromInt(1)},
			wantErr: ErrInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.code.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCode_Validate_NormalizesCode(t *testing.T) {
	c := Code{Code: "  save20 ", Type: TypePercentage, Value: decimal.NewFromInt(20)}
	assert.NoError(t, c.Validate())
	assert.Equal(t, "SAVE20", c.Code)
}
