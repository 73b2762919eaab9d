// Package pagecount determines how many pages an input document has.
package pagecount

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/local/gsraster/internal/gs"
)

// Counter returns the total page count of a document.
type Counter interface {
	Count(ctx context.Context, path string) (int, error)
}

// PDFCPU counts pages by parsing the document with pdfcpu.
type PDFCPU struct{}

func (PDFCPU) Count(_ context.Context, path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// Fitz counts pages by opening the document with MuPDF.
type Fitz struct{}

func (Fitz) Count(_ context.Context, path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Ghostscript asks the external tool itself for the page count and parses its
// stdout. The output is untrusted text and is validated before use.
type Ghostscript struct {
	Bin    string
	Runner gs.Runner
}

func (g Ghostscript) Count(ctx context.Context, path string) (int, error) {
	out := g.Runner.Run(ctx, g.Bin,
		"-q",
		"-dNODISPLAY",
		"--permit-file-read="+path,
		"-c", fmt.Sprintf("(%s) (r) file runpdfbegin pdfpagecount = quit", path),
	)
	if out.Err != nil {
		return 0, fmt.Errorf("page count probe: %w", out.Err)
	}
	if out.ExitCode != 0 {
		return 0, fmt.Errorf("page count probe exited %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	return parseCount(out.Stdout)
}

// parseCount extracts the page count from probe output. Ghostscript may print
// banner noise before the number, so only the last whitespace-separated token
// is considered.
func parseCount(raw string) (int, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, fmt.Errorf("page count probe produced no output")
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("page count probe produced %q: %w", strings.TrimSpace(raw), err)
	}
	if n < 0 {
		return 0, fmt.Errorf("page count probe produced negative count %d", n)
	}
	return n, nil
}
