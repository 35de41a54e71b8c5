package server

import (
	"strconv"
	"strings"

	"github.com/qkvdb/qkvdb/engine"
)

const doneMarker = "DONE."

// formatResult renders a successful Result as the response payload: a
// parenthesized, comma-separated list of bracketed rows followed by
// DONE. on its own line, or bare DONE. when there is no result matrix.
func formatResult(r engine.Result) string {
	if r.Rows == nil {
		return doneMarker
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, row := range r.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
		}
		b.WriteByte(']')
	}
	b.WriteString(")\n")
	b.WriteString(doneMarker)
	return b.String()
}
