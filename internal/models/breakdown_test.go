package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCashBreakdownTotal(t *testing.T) {
	t.Parallel()

	t.Run("nil breakdown is zero", func(t *testing.T) {
		t.Parallel()
		var b *CashBreakdown
		require.True(t, b.Total().IsZero())
	})

	t.Run("empty breakdown is zero", func(t *testing.T) {
		t.Parallel()
		require.True(t, NewCashBreakdown().Total().IsZero())
	})

	t.Run("bills and coins sum together", func(t *testing.T) {
		t.Parallel()
		b := &CashBreakdown{
			Bills: map[int64]int64{100000: 5, 50000: 1, 10000: 2},
			Coins: map[int64]int64{500: 3, 100: 10},
		}
		require.Equal(t, "572500", b.Total().String())
	})
}

func TestBreakdownMarshalling(t *testing.T) {
	t.Parallel()

	t.Run("nil maps to SQL NULL", func(t *testing.T) {
		t.Parallel()
		data, err := MarshalBreakdown(nil)
		require.NoError(t, err)
		require.Nil(t, data)

		b, err := UnmarshalBreakdown(nil)
		require.NoError(t, err)
		require.Nil(t, b)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		original := &CashBreakdown{
			Bills: map[int64]int64{200000: 1, 1000: 14},
			Coins: map[int64]int64{50: 2},
		}

		data, err := MarshalBreakdown(original)
		require.NoError(t, err)

		restored, err := UnmarshalBreakdown(data)
		require.NoError(t, err)
		require.Equal(t, original, restored)
		require.True(t, restored.Total().Equal(original.Total()))
	})
}
