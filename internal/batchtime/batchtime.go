package batchtime

import "strings"

// Canonical batch-time labels. Students and classes are matched on these.
const (
	Morning = "Morning batch (8:00-10:00)"
	Evening = "Evening batch (4:00-6:00)"
)

// Labels returns the current canonical label set.
func Labels() []string {
	return []string{Morning, Evening}
}

// legacy maps historical batch-time labels to the canonical set. Unknown
// labels pass through unchanged so old data never hard-fails.
var legacy = map[string]string{
	"06:00 - 07:00":  Morning,
	"07:00 - 08:00":  Morning,
	"8:00-10:00":     Morning,
	"Morning (8-10)": Morning,
	"Morning":        Morning,
	"16:00 - 17:00":  Evening,
	"17:00 - 18:00":  Evening,
	"4:00-6:00":      Evening,
	"Evening (4-6)":  Evening,
	"Evening":        Evening,
}

// Normalize canonicalizes a batch-time label. The input is trimmed and
// looked up in the legacy table; labels not in the table are returned
// trimmed but otherwise verbatim.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := legacy[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// Matches reports whether two labels denote the same batch time. Both
// sides are normalized, then compared case-insensitively with internal
// whitespace collapsed.
func Matches(a, b string) bool {
	return fold(Normalize(a)) == fold(Normalize(b))
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
