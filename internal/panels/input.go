package panels

import (
	"fmt"
	"strings"

	"twix/internal/api"
	"twix/internal/services"
)

// Username trims whitespace and a leading @ and rejects empty input.
func Username(raw string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", services.Wrap(services.ErrValidation, "panels", "input", "username is required", nil)
	}
	if strings.ContainsAny(name, " /?#") {
		return "", services.Wrap(services.ErrValidation, "panels", "input", fmt.Sprintf("invalid username %q", name), nil)
	}
	return name, nil
}

// Count resolves a result-count selection, substituting fallback for zero.
func Count(kind api.CountKind, n, fallback int) (int, error) {
	if n == 0 {
		n = fallback
	}
	if !api.CountAllowed(kind, n) {
		return 0, services.Wrap(services.ErrValidation, "panels", "input",
			fmt.Sprintf("count %d not allowed; choose one of %s", n, api.FormatCounts(kind)), nil)
	}
	return n, nil
}

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", services.Wrap(services.ErrValidation, "panels", "input", field+" is required", nil)
	}
	return value, nil
}
