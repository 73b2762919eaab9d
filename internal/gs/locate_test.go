package gs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeRunner struct {
	outcomes map[string]Outcome
	calls    []string
}

func (p *probeRunner) Run(_ context.Context, name string, args ...string) Outcome {
	p.calls = append(p.calls, name)
	return p.outcomes[name]
}

func TestLocatePrefersEarlierCandidates(t *testing.T) {
	r := &probeRunner{outcomes: map[string]Outcome{
		"gs": {ExitCode: 0, Stdout: "10.02.1\n"},
	}}
	bin, err := Locate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "gs", bin)
	assert.Equal(t, []string{"gs"}, r.calls)
}

func TestLocateFallsThroughFailedProbes(t *testing.T) {
	r := &probeRunner{outcomes: map[string]Outcome{
		"gs":       {ExitCode: -1, Err: errors.New("executable file not found")},
		"gswin64c": {ExitCode: 1, Stderr: "bad invocation"},
		"gswin32c": {ExitCode: 0, Stdout: "9.56\n"},
	}}
	bin, err := Locate(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "gswin32c", bin)
	assert.Equal(t, []string{"gs", "gswin64c", "gswin32c"}, r.calls)
}

func TestLocateReportsDistinctProbeOutcomes(t *testing.T) {
	r := &probeRunner{outcomes: map[string]Outcome{
		"gs":       {ExitCode: -1, Err: errors.New("executable file not found")},
		"gswin64c": {ExitCode: 127},
		"gswin32c": {ExitCode: -1, Err: errors.New("permission denied")},
	}}
	_, err := Locate(context.Background(), r)
	require.ErrorIs(t, err, ErrExecutableNotFound)
	assert.Contains(t, err.Error(), "gs: spawn failed")
	assert.Contains(t, err.Error(), "gswin64c: exit 127")
}
