package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidSet(months ...YearMonth) map[YearMonth]struct{} {
	s := make(map[YearMonth]struct{}, len(months))
	for _, m := range months {
		s[m] = struct{}{}
	}
	return s
}

func TestUnpaidMonths(t *testing.T) {
	now := YearMonth{2024, 4}

	t.Run("open contract skips paid months", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{2024, 1}, nil, paidSet(YearMonth{2024, 1}), now)
		require.NoError(t, err)
		assert.Equal(t, []YearMonth{{2024, 2}, {2024, 3}, {2024, 4}}, got)
	})

	t.Run("nothing paid returns whole span", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{2024, 2}, nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, []YearMonth{{2024, 2}, {2024, 3}, {2024, 4}}, got)
	})

	t.Run("everything paid returns empty", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{2024, 1}, nil,
			paidSet(YearMonth{2024, 1}, YearMonth{2024, 2}, YearMonth{2024, 3}, YearMonth{2024, 4}), now)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("contract end clamps the span", func(t *testing.T) {
		end := YearMonth{2024, 2}
		got, err := UnpaidMonths(YearMonth{2024, 1}, &end, nil, now)
		require.NoError(t, err)
		assert.Equal(t, []YearMonth{{2024, 1}, {2024, 2}}, got)
	})

	t.Run("future end is clamped to now", func(t *testing.T) {
		end := YearMonth{2025, 6}
		got, err := UnpaidMonths(YearMonth{2024, 3}, &end, nil, now)
		require.NoError(t, err)
		assert.Equal(t, []YearMonth{{2024, 3}, {2024, 4}}, got)
	})

	t.Run("zero start means no contract and no debt", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{}, nil, nil, now)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("contract starting after now owes nothing", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{2024, 5}, nil, nil, now)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("year rollover", func(t *testing.T) {
		got, err := UnpaidMonths(YearMonth{2023, 11}, nil, paidSet(YearMonth{2023, 12}), YearMonth{2024, 2})
		require.NoError(t, err)
		assert.Equal(t, []YearMonth{{2023, 11}, {2024, 1}, {2024, 2}}, got)
	})

	t.Run("end before start fails loudly", func(t *testing.T) {
		end := YearMonth{2024, 3}
		_, err := UnpaidMonths(YearMonth{2024, 6}, &end, nil, now)
		assert.ErrorIs(t, err, ErrEndBeforeStart)
	})

	t.Run("idempotent", func(t *testing.T) {
		paid := paidSet(YearMonth{2024, 2})
		first, err := UnpaidMonths(YearMonth{2024, 1}, nil, paid, now)
		require.NoError(t, err)
		second, err := UnpaidMonths(YearMonth{2024, 1}, nil, paid, now)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("ascending without duplicates and inside bounds", func(t *testing.T) {
		end := YearMonth{2024, 12}
		got, err := UnpaidMonths(YearMonth{2023, 1}, &end,
			paidSet(YearMonth{2023, 5}, YearMonth{2024, 1}), now)
		require.NoError(t, err)
		for i := 1; i < len(got); i++ {
			assert.Equal(t, -1, Compare(got[i-1], got[i]))
		}
		for _, ym := range got {
			assert.True(t, InRange(ym, YearMonth{2023, 1}, &end))
			assert.NotEqual(t, YearMonth{2023, 5}, ym)
			assert.NotEqual(t, YearMonth{2024, 1}, ym)
		}
	})
}
