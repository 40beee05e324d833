// Package power decides when the display should be hidden and drives the
// physical screen on/off through platform commands.
package power

// ShouldHide reports whether the display should be hidden at the given
// minute of day. Both bounds must be present for the feature to be active.
// A schedule whose off bound is numerically greater than its on bound spans
// midnight: the display stays hidden from the off time through midnight
// until the on time.
func ShouldHide(nowMinutes int, offMinutes, onMinutes *int) bool {
	if offMinutes == nil || onMinutes == nil {
		return false
	}

	off, on := *offMinutes, *onMinutes
	if off > on {
		return nowMinutes >= off || nowMinutes < on
	}
	return off <= nowMinutes && nowMinutes < on
}
