package gs

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Outcome captures one external invocation. Err is set when the process could
// not be started or was terminated by timeout/cancellation; a process that ran
// and exited non-zero has Err nil and ExitCode set.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Failed reports whether the invocation failed to spawn or exited non-zero.
func (o Outcome) Failed() bool { return o.Err != nil || o.ExitCode != 0 }

// Runner executes one external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Outcome
}

// ExecRunner runs commands through os/exec. A positive Timeout bounds each
// invocation; context cancellation kills the in-flight process either way.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) Outcome {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	out := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		default:
			out.ExitCode = -1
			out.Err = err
		}
		// A kill caused by deadline or cancellation surfaces as the context
		// error, not as a plain non-zero exit.
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.Err = ctxErr
		}
	}
	return out
}
