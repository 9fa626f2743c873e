package tracker_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/tracker"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// TARGET ADJUSTER TESTS
// =============================================================================

func TestPerDayTarget_TwoHoursAbsence(t *testing.T) {
	// GIVEN: 8 hour shift, 4 credit target
	// WHEN: 2 hours absent
	// THEN: (8-2)*4/8 = 3.00

	got, err := tracker.PerDayTarget(dec("8"), dec("4"), dec("2"))
	require.NoError(t, err)
	assertDecimal(t, "3.00", got)
}

func TestPerDayTarget_NoAbsenceMatchesScaledTarget(t *testing.T) {
	cases := []struct {
		shift, target string
	}{
		{"8", "4.25"},
		{"7.5", "4.25"},
		{"6", "4"},
		{"10", "3.33"},
		{"0.5", "9.99"},
	}

	for _, tc := range cases {
		shift, target := dec(tc.shift), dec(tc.target)
		got, err := tracker.PerDayTarget(shift, target, decimal.Zero)
		require.NoError(t, err)

		want := target.Mul(shift).Div(dec("8")).Round(2)
		assert.True(t, want.Equal(got), "shift %s target %s: want %s, got %s", tc.shift, tc.target, want, got)
	}
}

func TestPerDayTarget_MonotonicInAbsence(t *testing.T) {
	// Target never increases as absence grows from 0 to the full shift.
	step := dec("0.25")
	for _, shift := range []string{"8", "7.5", "4"} {
		for _, target := range []string{"0", "4.25", "9.99"} {
			s := dec(shift)
			prev, err := tracker.PerDayTarget(s, dec(target), decimal.Zero)
			require.NoError(t, err)

			for absence := step; absence.LessThanOrEqual(s); absence = absence.Add(step) {
				got, err := tracker.PerDayTarget(s, dec(target), absence)
				require.NoError(t, err)
				assert.True(t, got.LessThanOrEqual(prev),
					"shift %s target %s absence %s: %s > %s", shift, target, absence, got, prev)
				prev = got
			}
		}
	}
}

func TestPerDayTarget_FullDayAbsenceIsZero(t *testing.T) {
	got, err := tracker.PerDayTarget(dec("8"), dec("4.25"), dec("8"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestPerDayTarget_AbsenceBeyondShiftIsNotClamped(t *testing.T) {
	// GIVEN: 8 hour shift, 4 credit target
	// WHEN: 10 hours absent
	// THEN: (8-10)*4/8 = -1.00, passed through

	got, err := tracker.PerDayTarget(dec("8"), dec("4"), dec("10"))
	require.NoError(t, err)
	assertDecimal(t, "-1.00", got)
}

func TestPerDayTarget_ShortShiftScalesTarget(t *testing.T) {
	// 6 hour shift: adjusted target is 6*4/8 = 3; one hour away leaves 5/6 of it.
	got, err := tracker.PerDayTarget(dec("6"), dec("4"), dec("1"))
	require.NoError(t, err)
	assertDecimal(t, "2.50", got)
}

func TestPerDayTarget_RoundsToTwoPlaces(t *testing.T) {
	// 4.25 * (8-1)/8 = 3.71875
	got, err := tracker.PerDayTarget(dec("8"), dec("4.25"), dec("1"))
	require.NoError(t, err)
	assertDecimal(t, "3.72", got)
}

func TestPerDayTarget_RejectsZeroShift(t *testing.T) {
	_, err := tracker.PerDayTarget(decimal.Zero, dec("4"), decimal.Zero)
	assert.ErrorIs(t, err, tracker.ErrInvalidShiftHours)

	_, err = tracker.PerDayTarget(dec("-1"), dec("4"), decimal.Zero)
	assert.ErrorIs(t, err, tracker.ErrInvalidShiftHours)
}

func TestPerDayTarget_RejectsNegativeInputs(t *testing.T) {
	_, err := tracker.PerDayTarget(dec("8"), dec("-4"), decimal.Zero)
	assert.ErrorIs(t, err, tracker.ErrNegativeValue)

	_, err = tracker.PerDayTarget(dec("8"), dec("4"), dec("-1"))
	assert.ErrorIs(t, err, tracker.ErrNegativeValue)
}

func TestAdjustedDailyTarget(t *testing.T) {
	got, err := tracker.AdjustedDailyTarget(dec("7.5"), dec("4"))
	require.NoError(t, err)
	assertDecimal(t, "3.75", got)
}

func TestTargetAdjuster_ForWeek(t *testing.T) {
	adjuster, err := tracker.NewTargetAdjuster(dec("8"), dec("4"))
	require.NoError(t, err)

	assertDecimal(t, "20.00", adjuster.ForWeek(5, decimal.Zero))
	assertDecimal(t, "17.50", adjuster.ForWeek(5, dec("2.5")))
	assertDecimal(t, "0.00", adjuster.ForWeek(0, decimal.Zero))
}

func TestNewTargetAdjusterForProfile_Defaults(t *testing.T) {
	adjuster, err := tracker.NewTargetAdjusterForProfile(tracker.DefaultProfileTarget(1))
	require.NoError(t, err)
	assertDecimal(t, "4.25", adjuster.Adjusted())
}
