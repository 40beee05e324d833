package schedule

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Parse reads the alarm schedule text format: one "HH:MM" alarm time per
// line, plus optional "DISPLAY_OFF=HH:MM" and "DISPLAY_ON=HH:MM" lines.
// Comments ("#") and blank lines are skipped; malformed lines are logged
// and ignored rather than failing the whole schedule.
func Parse(data string) *Schedule {
	sched := &Schedule{}

	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "DISPLAY_OFF="):
			val := strings.TrimSpace(strings.TrimPrefix(line, "DISPLAY_OFF="))
			t, err := ParseTimeOfDay(val)
			if err != nil {
				log.Warn().Str("line", line).Err(err).Msg("Skipping invalid display-off time")
				continue
			}
			sched.DisplayOff = &t

		case strings.HasPrefix(line, "DISPLAY_ON="):
			val := strings.TrimSpace(strings.TrimPrefix(line, "DISPLAY_ON="))
			t, err := ParseTimeOfDay(val)
			if err != nil {
				log.Warn().Str("line", line).Err(err).Msg("Skipping invalid display-on time")
				continue
			}
			sched.DisplayOn = &t

		case strings.HasPrefix(line, "DISPLAY_"):
			// Unknown display directive, ignore

		default:
			t, err := ParseTimeOfDay(line)
			if err != nil {
				log.Warn().Str("line", line).Msg("Skipping invalid alarm time")
				continue
			}
			sched.AlarmTimes = append(sched.AlarmTimes, t)
		}
	}

	return sched
}

// LoadFile reads and parses the schedule file. A missing file is not an
// error: the feature degrades to an empty schedule.
func LoadFile(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Warn().Str("path", path).Msg("Alarm schedule file not found, using empty schedule")
		return &Schedule{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}
