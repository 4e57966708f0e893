package datasource

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultDigestRows = 100

// Digest renders a result as compact text suitable for inclusion in a
// model prompt. At most maxRows rows are included.
func Digest(res *Result, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultDigestRows
	}
	var sb strings.Builder
	if name := res.Metadata["sourceName"]; name != "" {
		fmt.Fprintf(&sb, "Data source: %s (%s)\n", name, res.Metadata["sourceType"])
	}
	fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(res.Columns, ", "))
	fmt.Fprintf(&sb, "Rows: %d\n", res.RowCount)

	shown := res.Rows
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	for _, row := range shown {
		line, err := json.Marshal(row)
		if err != nil {
			continue
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	if len(res.Rows) > maxRows {
		fmt.Fprintf(&sb, "... %d more rows omitted\n", len(res.Rows)-maxRows)
	}
	return sb.String()
}
