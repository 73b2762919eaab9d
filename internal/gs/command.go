package gs

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/local/gsraster/internal/batch"
	"github.com/local/gsraster/internal/config"
)

// ErrNoInput is returned when no input document has been set on the builder.
var ErrNoInput = errors.New("no input document")

// Memory sizing passed to every invocation so banding kicks in instead of
// Ghostscript growing its heap page by page.
const (
	bufferSpace     = 1000000000
	bandBufferSpace = 500000000
)

// Builder assembles the complete ordered Ghostscript argument list for each
// batch of one conversion run. Gating of format-specific flags is computed
// from the format and resolved settings directly, not by re-scanning the
// argument list.
type Builder struct {
	settings *config.Settings
	format   Format
	input    string
	outDir   string
}

// NewBuilder creates a builder for one run. input is the document path and
// outDir the existing directory that receives the page images.
func NewBuilder(settings *config.Settings, format Format, input, outDir string) *Builder {
	return &Builder{settings: settings, format: format, input: input, outDir: outDir}
}

// Args produces the flag list for one page range. The last four entries are
// always first page, last page, output file pattern and input path, in that
// order.
func (b *Builder) Args(r batch.Range) (*Args, error) {
	if b.input == "" {
		return nil, ErrNoInput
	}
	device, err := b.format.Device()
	if err != nil {
		return nil, err
	}
	res, err := b.settings.Int(config.KeyResolution)
	if err != nil {
		return nil, err
	}

	args := &Args{}
	args.Append(
		"-dNOPAUSE",
		"-dBATCH",
		fmt.Sprintf("-dNumRenderingThreads=%d", runtime.NumCPU()),
		fmt.Sprintf("-dBufferSpace=%d", bufferSpace),
		fmt.Sprintf("-dBandBufferSpace=%d", bandBufferSpace),
		"-dNOGC",
		fmt.Sprintf("-r%d", res),
		"-sDEVICE="+device,
	)

	switch b.format {
	case FormatJPEG:
		quality, err := b.settings.Int(config.KeyCompressionQuality)
		if err != nil {
			return nil, err
		}
		if quality < 0 || quality > 100 {
			return nil, fmt.Errorf("setting %s=%d out of range 0-100", config.KeyCompressionQuality, quality)
		}
		args.Append(fmt.Sprintf("-dJPEGQ=%d", quality), "-dCOLORSCREEN")
	case FormatPNGAlpha:
		bits, err := b.settings.Int(config.KeyAlphaBits)
		if err != nil {
			return nil, err
		}
		if bits < 1 || bits > 4 {
			return nil, fmt.Errorf("setting %s=%d out of range 1-4", config.KeyAlphaBits, bits)
		}
		// Graphics and text channels share one alpha depth.
		args.Append(
			fmt.Sprintf("-dGraphicsAlphaBits=%d", bits),
			fmt.Sprintf("-dTextAlphaBits=%d", bits),
		)
	}

	toggles := []struct {
		key  string
		flag string
	}{
		{config.KeyDisableColorManagement, "-dUseFastColor=true"},
		{config.KeyDisableFontEmbedding, "-dEmbedAllFonts=false"},
		{config.KeyDisableAnnotations, "-dShowAnnots=false"},
	}
	for _, t := range toggles {
		on, err := b.settings.Bool(t.key)
		if err != nil {
			return nil, err
		}
		if on {
			args.Append(t.flag)
		}
	}

	args.Append(
		fmt.Sprintf("-dFirstPage=%d", r.First),
		fmt.Sprintf("-dLastPage=%d", r.Last),
		"-sOutputFile="+filepath.Join(b.outDir, b.OutputPattern(r)),
		b.input,
	)
	return args, nil
}

// OutputPattern returns the per-page file name pattern for a range.
// Ghostscript substitutes its output counter for the %d verb, starting at 1
// for the first page of each invocation.
func (b *Builder) OutputPattern(r batch.Range) string {
	if r.Batched() {
		return fmt.Sprintf("page_%d_%%d.%s", r.Index, b.format.Ext())
	}
	return fmt.Sprintf("page_%%d.%s", b.format.Ext())
}
