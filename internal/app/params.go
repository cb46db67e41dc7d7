package app

import (
	"errors"
	"strings"
)

var errParam = errors.New("parameter must be key=value")

func cutParam(s string) (string, string, bool) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", false
	}
	return k, strings.TrimSpace(v), true
}
