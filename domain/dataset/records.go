package dataset

import (
	"fmt"
	"sort"
	"strconv"
)

// TableFromRecords builds a Table from decoded JSON objects. Headers are the union of
// keys in sorted order; numbers and booleans are formatted back to text.
func TableFromRecords(records []map[string]interface{}) *Table {
	seen := make(map[string]struct{})
	table := &Table{Rows: make([]Row, 0, len(records))}
	for _, raw := range records {
		row := make(Row, len(raw))
		for k, v := range raw {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				table.Headers = append(table.Headers, k)
			}
			row[k] = cellText(v)
		}
		table.Rows = append(table.Rows, row)
	}
	sort.Strings(table.Headers)
	return table
}

func cellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
