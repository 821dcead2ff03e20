package catalog

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeID collapses numeric id representations to a single canonical
// form: float values with a zero fraction ("123.0", "1.23e2") become the
// integer string "123". Non-numeric ids pass through unchanged. It is applied
// at every ingestion boundary: API decode, cache read, and snapshot read.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}
