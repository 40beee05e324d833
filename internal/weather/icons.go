package weather

// Open-Meteo WMO weather interpretation codes, collapsed to the icon set
// the kiosk ships.
var codeIcons = map[int]string{
	0: "clear", 1: "clear", 2: "partly_cloudy", 3: "cloudy",
	45: "fog", 48: "fog",
	51: "rain", 53: "rain", 55: "rain",
	56: "rain", 57: "rain",
	61: "rain", 63: "rain", 65: "rain",
	66: "rain", 67: "rain",
	71: "snow", 73: "snow", 75: "snow",
	77: "snow",
	80: "rain", 81: "rain", 82: "rain",
	85: "snow", 86: "snow",
	95: "thunderstorm", 96: "thunderstorm", 99: "thunderstorm",
}

// IconForCode maps a weather code to an icon id. Unknown codes fall back
// to "clear".
func IconForCode(code int) string {
	if icon, ok := codeIcons[code]; ok {
		return icon
	}
	return "clear"
}
