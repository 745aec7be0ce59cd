package transform

import (
	"strings"
	"time"
)

// Builtin returns a registry preloaded with the standard EMIS→ACG transforms.
func Builtin() *Registry {
	r := NewRegistry()
	r.RegisterCell("transform_sex", TransformSex)
	r.RegisterCell("format_date_yyyy_mm_dd", FormatDate)
	r.RegisterCell("determine_dx_version", DetermineDxVersion)
	r.RegisterCell("determine_rx_code_type", DetermineRxCodeType)
	r.RegisterGenerator("set_zero_cost", ZeroValue)
	r.RegisterGenerator("set_zero_utilization", ZeroValue)
	return r
}

var sexCodes = map[string]string{
	"M": "1",
	"F": "2",
	"1": "1",
	"2": "2",
}

// TransformSex maps an EMIS sex/gender code to the ACG numeric code.
// Unknown or empty values map to "9" (unknown).
func TransformSex(value string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(value))
	if mapped, ok := sexCodes[code]; ok {
		return mapped, nil
	}
	return "9", nil
}

// Common date formats found in EMIS extracts.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// FormatDate parses a date in any of the common extract formats and
// reformats it as YYYY-MM-DD. Empty or unparseable values become empty
// strings rather than errors, matching what the ACG loader tolerates.
func FormatDate(value string) (string, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", nil
}

// DetermineDxVersion returns the ACG dx version flag for a clinical code.
// All non-empty codes in EMIS extracts are SNOMED CT ("S").
func DetermineDxVersion(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return "S", nil
}

// DetermineRxCodeType returns the ACG rx code type for a drug code.
// EMIS drug codes are Read drug codes ("RRxUK") unless empty.
func DetermineRxCodeType(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return "RRxUK", nil
}

// ZeroValue generates the literal "0", used for cost and utilization
// columns the extracts carry no data for.
func ZeroValue() (string, error) {
	return "0", nil
}
