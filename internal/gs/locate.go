package gs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrExecutableNotFound is returned when no candidate binary is usable.
var ErrExecutableNotFound = errors.New("no usable ghostscript executable")

// Candidates are the binary names probed in order of preference.
var Candidates = []string{"gs", "gswin64c", "gswin32c"}

// Probe records the outcome of testing one candidate binary. A spawn failure
// and a probe that ran but exited non-zero are distinct outcomes.
type Probe struct {
	Name     string
	SpawnErr error
	ExitCode int
}

func (p Probe) String() string {
	if p.SpawnErr != nil {
		return fmt.Sprintf("%s: spawn failed: %v", p.Name, p.SpawnErr)
	}
	return fmt.Sprintf("%s: exit %d", p.Name, p.ExitCode)
}

// Locate probes the candidate binaries with --version and returns the first
// one that starts and exits zero. When none is usable the returned error
// wraps ErrExecutableNotFound and lists every probe outcome.
func Locate(ctx context.Context, runner Runner) (string, error) {
	probes := make([]Probe, 0, len(Candidates))
	for _, name := range Candidates {
		out := runner.Run(ctx, name, "--version")
		if out.Err == nil && out.ExitCode == 0 {
			log.Debug().
				Str("binary", name).
				Str("version", strings.TrimSpace(out.Stdout)).
				Msg("ghostscript found")
			return name, nil
		}
		probes = append(probes, Probe{Name: name, SpawnErr: out.Err, ExitCode: out.ExitCode})
	}

	parts := make([]string, 0, len(probes))
	for _, p := range probes {
		parts = append(parts, p.String())
	}
	return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, strings.Join(parts, "; "))
}
