package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// Filter keys accepted by every Fetch in addition to the column keys.
const (
	filterLimit  = "limit"
	filterOffset = "offset"
)

// buildFilter turns a Fetch filter into a WHERE clause and a LIMIT/OFFSET
// suffix. columns maps each accepted filter key to its column; every column
// filter must be a string. Unknown keys return ErrInvalidFilter.
func buildFilter(filter types.Filter, columns map[string]string) (where string, args []any, suffix string, err error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []string
	for _, k := range keys {
		v := filter[k]
		switch k {
		case filterLimit, filterOffset:
			n, ok := v.(int)
			if !ok || n < 0 {
				return "", nil, "", types.ErrInvalidFilter
			}
			continue
		}
		col, ok := columns[k]
		if !ok {
			return "", nil, "", fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, k)
		}
		s, ok := v.(string)
		if !ok {
			return "", nil, "", types.ErrInvalidFilter
		}
		conditions = append(conditions, col+" = ?")
		args = append(args, s)
	}

	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	if n, _ := filter[filterLimit].(int); n > 0 {
		suffix += fmt.Sprintf(" LIMIT %d", n)
		if off, _ := filter[filterOffset].(int); off > 0 {
			suffix += fmt.Sprintf(" OFFSET %d", off)
		}
	}
	return where, args, suffix, nil
}
