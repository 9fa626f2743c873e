package tracker_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/job-tracker/tracker"
)

func TestDate_StartOfWeek(t *testing.T) {
	cases := []struct {
		name string
		day  tracker.Date
		want tracker.Date
	}{
		{"monday", mon, mon},
		{"wednesday", wed, mon},
		{"sunday", sun, mon},
		{"across month", tracker.NewDate(2025, time.March, 2), tracker.NewDate(2025, time.February, 24)},
		{"across year", tracker.NewDate(2025, time.January, 1), tracker.NewDate(2024, time.December, 30)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.day.StartOfWeek())
		})
	}
}

func TestDate_DateOfDropsClock(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	got := tracker.DateOf(time.Date(2025, time.March, 11, 7, 30, 0, 0, loc))

	assert.Equal(t, tue, got)
}

func TestParseDate(t *testing.T) {
	d, err := tracker.ParseDate("2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, wed, d)

	_, err = tracker.ParseDate("12/03/2025")
	assert.ErrorIs(t, err, tracker.ErrInvalidDate)
	assert.True(t, tracker.IsClientError(err))
}

func TestDate_JSON(t *testing.T) {
	data, err := json.Marshal(fri)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-14"`, string(data))

	var back tracker.Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fri, back)
}

func TestWeek_Days(t *testing.T) {
	week := tracker.WeekOf(fri)

	days := week.Days()
	require.Len(t, days, 7)
	assert.Equal(t, mon, days[0])
	assert.Equal(t, sun, days[6])
	assert.True(t, week.Contains(sat))
	assert.False(t, week.Contains(sun.AddDays(1)))
	assert.Equal(t, mon.AddDays(7), week.Next().Start)
	assert.Equal(t, mon.AddDays(-7), week.Previous().Start)
}

func TestDate_Label(t *testing.T) {
	assert.Equal(t, "Mon 10 Mar", mon.Label())
}
