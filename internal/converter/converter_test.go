package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/gsraster/internal/config"
	"github.com/local/gsraster/internal/gs"
)

// fakeRunner answers Locate probes for "gs" and records conversion commands.
// Batches whose -dFirstPage value appears in failAt exit non-zero.
type fakeRunner struct {
	mu     sync.Mutex
	cmds   [][]string
	failAt map[int]bool
	delay  func(firstPage int) time.Duration
	noBin  bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) gs.Outcome {
	if len(args) == 1 && args[0] == "--version" {
		if f.noBin || name != "gs" {
			return gs.Outcome{ExitCode: -1, Err: errors.New("executable file not found")}
		}
		return gs.Outcome{Stdout: "10.02.1\n"}
	}

	first := 0
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "-dFirstPage="); ok {
			first, _ = strconv.Atoi(v)
		}
	}
	if f.delay != nil {
		time.Sleep(f.delay(first))
	}

	f.mu.Lock()
	f.cmds = append(f.cmds, append([]string{name}, args...))
	f.mu.Unlock()

	if f.failAt[first] {
		return gs.Outcome{ExitCode: 1, Stderr: "ghostscript error", Duration: time.Millisecond}
	}
	return gs.Outcome{Duration: time.Millisecond}
}

type stubPages int

func (s stubPages) Count(context.Context, string) (int, error) { return int(s), nil }

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	content := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testJob(t *testing.T, user map[string]any) Job {
	t.Helper()
	return Job{
		Input:     writePDF(t),
		OutputDir: t.TempDir(),
		Format:    gs.FormatJPEG,
		Settings:  config.NewSettings(user),
	}
}

func TestConvertBestEffortContinuesAfterFailure(t *testing.T) {
	runner := &fakeRunner{failAt: map[int]bool{4: true}}
	conv := New(runner, stubPages(10), Options{})

	report, err := conv.Convert(context.Background(), testJob(t, map[string]any{config.KeyBatchSize: 3}))
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	assert.True(t, report.Results[1].Failed())
	assert.Equal(t, 1, report.Results[1].ExitCode)
	assert.Equal(t, "ghostscript error", report.Results[1].Stderr)

	for _, i := range []int{0, 2, 3} {
		assert.False(t, report.Results[i].Failed(), "batch %d", i)
		assert.False(t, report.Results[i].Skipped, "batch %d", i)
	}
	assert.Equal(t, 1, report.FailedCount())
	assert.Equal(t, 0, report.SkippedCount())
	assert.False(t, report.OK())
}

func TestConvertFailFastSkipsRemaining(t *testing.T) {
	runner := &fakeRunner{failAt: map[int]bool{4: true}}
	conv := New(runner, stubPages(10), Options{FailFast: true})

	report, err := conv.Convert(context.Background(), testJob(t, map[string]any{config.KeyBatchSize: 3}))
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	assert.False(t, report.Results[0].Failed())
	assert.True(t, report.Results[1].Failed())
	assert.True(t, report.Results[2].Skipped)
	assert.True(t, report.Results[3].Skipped)
	assert.Equal(t, 2, report.SkippedCount())
}

func TestConvertCoversAllPagesOnce(t *testing.T) {
	runner := &fakeRunner{}
	conv := New(runner, stubPages(10), Options{})

	report, err := conv.Convert(context.Background(), testJob(t, map[string]any{config.KeyBatchSize: 4}))
	require.NoError(t, err)
	require.True(t, report.OK())

	seen := map[int]int{}
	for _, r := range report.Results {
		for p := r.First; p <= r.Last; p++ {
			seen[p]++
		}
	}
	for p := 1; p <= 10; p++ {
		assert.Equal(t, 1, seen[p], "page %d", p)
	}
	assert.Len(t, seen, 10)
}

func TestConvertPoolKeepsPlanOrder(t *testing.T) {
	// Earlier batches take longer, so completion order inverts plan order.
	runner := &fakeRunner{delay: func(first int) time.Duration {
		return time.Duration(12-first) * time.Millisecond
	}}
	conv := New(runner, stubPages(10), Options{Workers: 4})

	report, err := conv.Convert(context.Background(), testJob(t, map[string]any{config.KeyBatchSize: 3}))
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	require.True(t, report.OK())

	for i, r := range report.Results {
		assert.Equal(t, i+1, r.Index)
		if i > 0 {
			assert.Greater(t, r.First, report.Results[i-1].Last)
		}
	}
}

func TestConvertEmptyPlanIsNoop(t *testing.T) {
	runner := &fakeRunner{}
	conv := New(runner, stubPages(5), Options{})

	report, err := conv.Convert(context.Background(), testJob(t, map[string]any{config.KeyStartPage: 5}))
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.True(t, report.OK())
	assert.Empty(t, runner.cmds)
}

func TestConvertUnbatchedSingleInvocation(t *testing.T) {
	runner := &fakeRunner{}
	conv := New(runner, stubPages(25), Options{})

	report, err := conv.Convert(context.Background(), testJob(t, nil))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 0, report.Results[0].Index)
	assert.Equal(t, 25, report.Results[0].Last)
	require.Len(t, runner.cmds, 1)
	assert.Contains(t, runner.cmds[0], "-dLastPage=25")
}

func TestConvertMissingInput(t *testing.T) {
	conv := New(&fakeRunner{}, stubPages(5), Options{})
	job := testJob(t, nil)
	job.Input = filepath.Join(t.TempDir(), "absent.pdf")

	_, err := conv.Convert(context.Background(), job)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestConvertRejectsNonPDF(t *testing.T) {
	conv := New(&fakeRunner{}, stubPages(5), Options{})
	job := testJob(t, nil)
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text\n"), 0o644))
	job.Input = path

	_, err := conv.Convert(context.Background(), job)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestConvertInvalidOutputDir(t *testing.T) {
	conv := New(&fakeRunner{}, stubPages(5), Options{})
	job := testJob(t, nil)
	job.OutputDir = filepath.Join(t.TempDir(), "missing")

	_, err := conv.Convert(context.Background(), job)
	assert.ErrorIs(t, err, ErrInvalidDirectory)
}

func TestConvertUnsupportedFormat(t *testing.T) {
	conv := New(&fakeRunner{}, stubPages(5), Options{})
	job := testJob(t, nil)
	job.Format = gs.Format("tiff")

	_, err := conv.Convert(context.Background(), job)
	assert.ErrorIs(t, err, gs.ErrUnsupportedFormat)
}

func TestConvertNoBinaryWithoutFallback(t *testing.T) {
	conv := New(&fakeRunner{noBin: true}, stubPages(5), Options{Fallback: false})

	_, err := conv.Convert(context.Background(), testJob(t, nil))
	assert.ErrorIs(t, err, gs.ErrExecutableNotFound)
}

func TestConvertCancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{delay: func(first int) time.Duration {
		if first == 1 {
			cancel()
		}
		return 0
	}}
	conv := New(runner, stubPages(10), Options{})

	report, err := conv.Convert(ctx, testJob(t, map[string]any{config.KeyBatchSize: 3}))
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	for _, r := range report.Results[1:] {
		assert.True(t, r.Skipped, "batch %d", r.Index)
	}
}
