package order_test

import (
	"strconv"
	"testing"
	"time"

	"custody/internal/core/domain/model/order"
	"custody/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTransferCodeDigits(t *testing.T) {
	for range 200 {
		code, err := order.GenerateTransferCodeDigits()
		require.NoError(t, err)
		require.Len(t, code, order.TransferCodeLength)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestNewTransferCode(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		code      string
		issuedAt  time.Time
		targetHop int
		wantErr   error
	}{
		{"valid", "123456", now, 1, nil},
		{"empty code", "", now, 1, errs.ErrValueIsRequired},
		{"short code", "12345", now, 1, errs.ErrValueIsInvalid},
		{"non numeric", "12a456", now, 1, errs.ErrValueIsInvalid},
		{"zero issue time", "123456", time.Time{}, 1, errs.ErrValueIsRequired},
		{"target hop zero", "123456", now, 0, errs.ErrValueIsOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := order.NewTransferCode(tt.code, tt.issuedAt, tt.targetHop)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, c.Validate())
			assert.True(t, c.Matches(tt.code))
			assert.False(t, c.Matches("000000"))
		})
	}

	t.Run("zero value is not constructed", func(t *testing.T) {
		var c order.TransferCode
		assert.ErrorIs(t, c.Validate(), order.ErrTransferCodeIsNotConstructed)
		assert.EqualError(t, c.Validate(), "TransferCode must be created via NewTransferCode constructor")
	})
}
