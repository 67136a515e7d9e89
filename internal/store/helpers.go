package store

import (
	"encoding/json"
	"slices"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// marshalFlags converts []string to JSON text for storage.
func marshalFlags(flags []string) string {
	if len(flags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(flags)
	return string(b)
}

// UnmarshalFlags converts JSON text back to []string.
// Exported for use by QueryBuilder.
func UnmarshalFlags(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var flags []string
	_ = json.Unmarshal([]byte(s), &flags)
	return flags
}

func hasFlag(flags []string, flag string) bool {
	return slices.Contains(flags, flag)
}
