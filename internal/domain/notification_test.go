package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotificationDate(t *testing.T) {
	cases := []struct {
		emission string
		want     string
	}{
		{"2025-07-14", "2025-07-07"}, // Monday emission: seven days back is a Monday
		{"2025-07-16", "2025-07-07"}, // Wednesday
		{"2025-07-20", "2025-07-07"}, // Sunday
		{"2025-07-21", "2025-07-14"},
		{"2025-01-06", "2024-12-30"}, // crosses the year boundary
	}
	for _, tc := range cases {
		emission, _ := ParseDate(tc.emission)
		got := NotificationDate(emission)
		assert.Equal(t, tc.want, got.Format(DateLayout), "emission %s", tc.emission)
		assert.Equal(t, time.Monday, got.Weekday())
	}
}

func TestEmissionWindow(t *testing.T) {
	monday, _ := ParseDate("2025-07-07")
	from, to, ok := EmissionWindow(monday)
	assert.True(t, ok)
	assert.Equal(t, "2025-07-14", from.Format(DateLayout))
	assert.Equal(t, "2025-07-20", to.Format(DateLayout))

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		assert.True(t, NotificationDate(d).Equal(monday), "emission %s", d.Format(DateLayout))
	}
	assert.False(t, NotificationDate(to.AddDate(0, 0, 1)).Equal(monday))

	_, _, ok = EmissionWindow(monday.AddDate(0, 0, 2))
	assert.False(t, ok)
}
