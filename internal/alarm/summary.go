package alarm

import (
	"strings"

	"github.com/lielu/kioskd/internal/schedule"
)

// Summary formats the configured alarms for the on-screen list, padded to
// a constant number of lines so the layout never jumps.
func Summary(times []schedule.TimeOfDay, maxShown int) string {
	if len(times) == 0 {
		sb := strings.Builder{}
		sb.WriteString("Alarms:\n(no alarms)")
		for i := 1; i < maxShown; i++ {
			sb.WriteString("\n ")
		}
		return sb.String()
	}

	shown := times
	if len(shown) > maxShown {
		shown = shown[:maxShown]
	}

	sb := strings.Builder{}
	sb.WriteString("Alarms:")
	for _, t := range shown {
		sb.WriteString("\n" + t.String())
	}
	for i := len(shown); i < maxShown; i++ {
		sb.WriteString("\n ")
	}
	return sb.String()
}
