package utils

import "strings"

// TrimmedOrNil - nil для пустой после trim строки.
func TrimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
