package main

import (
	"strings"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func trimAt(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// maskKey shows only the last four characters of an API key.
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
