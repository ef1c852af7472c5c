package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"twix/internal/monitor"
	"twix/internal/services"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitTimeout   = 2
	exitAuth      = 3
	exitCancelled = 130
)

// exitCode prints err (unless the operator cancelled) and maps it to a process
// status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, monitor.ErrCancelled) {
		return exitCancelled
	}
	fmt.Fprintln(stderr, err)
	switch services.FailureKind(err) {
	case "unauthorized":
		fmt.Fprintln(stderr, "Stored API key was cleared. Run `twix auth set-key <key>` to authenticate again.")
		return exitAuth
	case "timeout":
		return exitTimeout
	default:
		return exitFailure
	}
}
