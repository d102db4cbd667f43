package aggregate

import (
	"strings"
)

// ZoneCodeWidth is the width of a normalized FAF zone code.
const ZoneCodeWidth = 3

// PadZoneCode normalizes a zone code to a zero-padded string of
// ZoneCodeWidth characters. Surrounding whitespace and the ".0" suffix that
// spreadsheet numeric cells sometimes carry are removed first. Codes already
// at or above the width are returned unchanged.
func PadZoneCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ".0")
	if len(code) >= ZoneCodeWidth {
		return code
	}
	return strings.Repeat("0", ZoneCodeWidth-len(code)) + code
}
