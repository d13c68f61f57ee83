package datetime

// timezoneLookup maps lowercase city, state, country, and alias names
// to IANA zones. US states map to a representative zone; countries map
// to the capital's zone.
var timezoneLookup = map[string]string{
	// US states — Eastern
	"new york state": "America/New_York",
	"connecticut":    "America/New_York",
	"delaware":       "America/New_York",
	"florida":        "America/New_York",
	"georgia":        "America/New_York",
	"maine":          "America/New_York",
	"maryland":       "America/New_York",
	"massachusetts":  "America/New_York",
	"michigan":       "America/Detroit",
	"new hampshire":  "America/New_York",
	"new jersey":     "America/New_York",
	"north carolina": "America/New_York",
	"ohio":           "America/New_York",
	"pennsylvania":   "America/New_York",
	"rhode island":   "America/New_York",
	"south carolina": "America/New_York",
	"vermont":        "America/New_York",
	"virginia":       "America/New_York",
	"washington dc":  "America/New_York",
	"dc":             "America/New_York",
	"west virginia":  "America/New_York",
	// US states — Central
	"alabama":      "America/Chicago",
	"arkansas":     "America/Chicago",
	"illinois":     "America/Chicago",
	"iowa":         "America/Chicago",
	"kansas":       "America/Chicago",
	"kentucky":     "America/New_York",
	"louisiana":    "America/Chicago",
	"minnesota":    "America/Chicago",
	"mississippi":  "America/Chicago",
	"missouri":     "America/Chicago",
	"nebraska":     "America/Chicago",
	"north dakota": "America/Chicago",
	"oklahoma":     "America/Chicago",
	"south dakota": "America/Chicago",
	"tennessee":    "America/Chicago",
	"texas":        "America/Chicago",
	"wisconsin":    "America/Chicago",
	// US states — Mountain
	"arizona":    "America/Phoenix",
	"colorado":   "America/Denver",
	"idaho":      "America/Boise",
	"montana":    "America/Denver",
	"new mexico": "America/Denver",
	"utah":       "America/Denver",
	"wyoming":    "America/Denver",
	// US states — Pacific
	"california":       "America/Los_Angeles",
	"nevada":           "America/Los_Angeles",
	"oregon":           "America/Los_Angeles",
	"washington":       "America/Los_Angeles",
	"washington state": "America/Los_Angeles",
	// US states — non-contiguous
	"alaska": "America/Anchorage",
	"hawaii": "Pacific/Honolulu",

	// Countries
	"japan":                "Asia/Tokyo",
	"china":                "Asia/Shanghai",
	"india":                "Asia/Kolkata",
	"germany":              "Europe/Berlin",
	"france":               "Europe/Paris",
	"italy":                "Europe/Rome",
	"spain":                "Europe/Madrid",
	"uk":                   "Europe/London",
	"united kingdom":       "Europe/London",
	"england":              "Europe/London",
	"scotland":             "Europe/London",
	"ireland":              "Europe/Dublin",
	"australia":            "Australia/Sydney",
	"brazil":               "America/Sao_Paulo",
	"mexico":               "America/Mexico_City",
	"canada":               "America/Toronto",
	"south korea":          "Asia/Seoul",
	"korea":                "Asia/Seoul",
	"russia":               "Europe/Moscow",
	"turkey":               "Europe/Istanbul",
	"egypt":                "Africa/Cairo",
	"south africa":         "Africa/Johannesburg",
	"nigeria":              "Africa/Lagos",
	"kenya":                "Africa/Nairobi",
	"thailand":             "Asia/Bangkok",
	"vietnam":              "Asia/Ho_Chi_Minh",
	"indonesia":            "Asia/Jakarta",
	"philippines":          "Asia/Manila",
	"malaysia":             "Asia/Kuala_Lumpur",
	"pakistan":             "Asia/Karachi",
	"saudi arabia":         "Asia/Riyadh",
	"israel":               "Asia/Jerusalem",
	"uae":                  "Asia/Dubai",
	"united arab emirates": "Asia/Dubai",
	"argentina":            "America/Argentina/Buenos_Aires",
	"colombia":             "America/Bogota",
	"chile":                "America/Santiago",
	"peru":                 "America/Lima",
	"new zealand":          "Pacific/Auckland",
	"portugal":             "Europe/Lisbon",
	"netherlands":          "Europe/Amsterdam",
	"belgium":              "Europe/Brussels",
	"switzerland":          "Europe/Zurich",
	"austria":              "Europe/Vienna",
	"sweden":               "Europe/Stockholm",
	"norway":               "Europe/Oslo",
	"denmark":              "Europe/Copenhagen",
	"finland":              "Europe/Helsinki",
	"poland":               "Europe/Warsaw",
	"czech republic":       "Europe/Prague",
	"greece":               "Europe/Athens",
	"taiwan":               "Asia/Taipei",

	// Abbreviations and common aliases
	"nyc":            "America/New_York",
	"ny":             "America/New_York",
	"la":             "America/Los_Angeles",
	"sf":             "America/Los_Angeles",
	"san fran":       "America/Los_Angeles",
	"seattle":        "America/Los_Angeles",
	"portland":       "America/Los_Angeles",
	"vegas":          "America/Los_Angeles",
	"las vegas":      "America/Los_Angeles",
	"dallas":         "America/Chicago",
	"austin":         "America/Chicago",
	"houston":        "America/Chicago",
	"san antonio":    "America/Chicago",
	"atlanta":        "America/New_York",
	"miami":          "America/New_York",
	"boston":         "America/New_York",
	"philly":         "America/New_York",
	"philadelphia":   "America/New_York",
	"detroit":        "America/Detroit",
	"minneapolis":    "America/Chicago",
	"st louis":       "America/Chicago",
	"st. louis":      "America/Chicago",
	"new delhi":      "Asia/Kolkata",
	"delhi":          "Asia/Kolkata",
	"mumbai":         "Asia/Kolkata",
	"bombay":         "Asia/Kolkata",
	"calcutta":       "Asia/Kolkata",
	"bangalore":      "Asia/Kolkata",
	"chennai":        "Asia/Kolkata",
	"hyderabad":      "Asia/Kolkata",
	"beijing":        "Asia/Shanghai",
	"peking":         "Asia/Shanghai",
	"guangzhou":      "Asia/Shanghai",
	"shenzhen":       "Asia/Shanghai",
	"hong kong":      "Asia/Hong_Kong",
	"hk":             "Asia/Hong_Kong",
	"mexico city":    "America/Mexico_City",
	"sao paulo":      "America/Sao_Paulo",
	"rio":            "America/Sao_Paulo",
	"rio de janeiro": "America/Sao_Paulo",
	"buenos aires":   "America/Argentina/Buenos_Aires",
}
