package discount

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	code         *Code
	resolveErr   error
	redeemErr    error
	resolvedWith string
	redeemedWith string
}

func (m *mockRepo) List(context.Context, bool) ([]Code, error) { return nil, nil }

func (m *mockRepo) Resolve(_ context.Context, token string) (*Code, error) {
	m.resolvedWith = token
	return m.code, m.resolveErr
}

func (m *mockRepo) Create(context.Context, *Code) error { return nil }
func (m *mockRepo) Update(context.Context, *Code) error { return nil }
func (m *mockRepo) Delete(context.Context, string) error { return nil }

func (m *mockRepo) Redeem(_ context.Context, code string) error {
	m.redeemedWith = code
	return m.redeemErr
}

func TestRepoValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(24 * time.Hour)

	subtotal := decimal.NewFromInt(100)

	tests := []struct {
		name       string
		repo       *mockRepo
		code       string
		wantAmount string
		wantErr    error
	}{
		{
			name: "valid percentage code",
			repo: &mockRepo{code: &Code{
				Code: "SAVE20", Type: TypePercentage,
				Value: decimal.NewFromInt(20), Active: true,
			}},
			code:       "save20",
			wantAmount: "20",
		},
		{
			name:    "unknown code",
			repo:    &mockRepo{resolveErr: ErrNotFound},
			code:    "BOGUS",
			wantErr: ErrNotFound,
		},
		{
			name: "inactive code",
			repo: &mockRepo{code: &Code{
				Code: "OFF", Type: TypeFixed,
				Value: decimal.NewFromInt(5), Active: false,
			}},
			code:    "OFF",
			wantErr: ErrInactive,
		},
		{
			name: "expired code",
			repo: &mockRepo{code: &Code{
				Code: "OLD", Type: TypeFixed,
				Value: decimal.NewFromInt(5), Active: true, ExpiresAt: &past,
			}},
			code:    "OLD",
			wantErr: ErrExpired,
		},
		{
			name: "not yet expired code",
			repo: &mockRepo{code: &Code{
				Code: "FRESH", Type: TypeFixed,
				Value: decimal.NewFromInt(5), Active: true, ExpiresAt: &future,
			}},
			code:       "FRESH",
			wantAmount: "5",
		},
		{
			name: "usage limit reached",
			repo: &mockRepo{code: &Code{
				Code: "LIMITED", Type: TypePercentage,
				Value: decimal.NewFromInt(10), Active: true,
				MaxUses: 50, UsedCount: 50,
			}},
			code:    "LIMITED",
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "unlimited uses",
			repo: &mockRepo{code: &Code{
				Code: "FOREVER", Type: TypePercentage,
				Value: decimal.NewFromInt(10), Active: true,
				MaxUses: 0, UsedCount: 9999,
			}},
			code:       "FOREVER",
			wantAmount: "10",
		},
		{
			name: "concurrent redemption loses the race",
			repo: &mockRepo{
				code: &Code{
					Code: "RACY", Type: TypeFixed,
					Value: decimal.NewFromInt(5), Active: true,
					MaxUses: 10, UsedCount: 9,
				},
				redeemErr: ErrUsageLimitReached,
			},
			code:    "RACY",
			wantErr: ErrUsageLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Validate(context.Background(), tt.code, subtotal)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.Amount.Equal(decimal.RequireFromString(tt.wantAmount)),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
			assert.Equal(t, got.Code, tt.repo.redeemedWith, "successful validation must redeem")
		})
	}
}

func TestRepoValidator_NormalizesLookupToken(t *testing.T) {
	repo := &mockRepo{code: &Code{
		Code: "SAVE20", Type: TypePercentage,
		Value: decimal.NewFromInt(20), Active: true,
	}}
	v := NewRepoValidator(repo)

	_, err := v.Validate(context.Background(), "  save20 ", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", repo.resolvedWith)
}
