// Package imagerender renders PDF pages in-process with MuPDF. It backs the
// fallback path used when no Ghostscript binary is available.
package imagerender

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Options control rendering of one page range.
type Options struct {
	DPI     int
	Quality int  // JPEG only
	PNG     bool // encode PNG instead of JPEG
}

// RenderRange renders pages first..last (1-based, inclusive) of the document
// to files in outDir named by pattern. The pattern must contain one %d verb,
// which receives the page's position within the range starting at 1, matching
// the numbering Ghostscript uses for its output counter.
func RenderRange(pdfPath, outDir, pattern string, first, last int, opts Options) error {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	// Unbatched plans may start at page 0.
	if first < 1 {
		first = 1
	}
	if last > doc.NumPage() {
		last = doc.NumPage()
	}

	for page := first; page <= last; page++ {
		img, err := doc.ImageDPI(page-1, float64(opts.DPI))
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", page, err)
		}

		name := fmt.Sprintf(pattern, page-first+1)
		f, err := os.Create(filepath.Join(outDir, name))
		if err != nil {
			return err
		}
		if opts.PNG {
			err = png.Encode(f, img)
		} else {
			err = jpeg.Encode(f, img, &jpeg.Options{Quality: opts.Quality})
		}
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("failed to encode page %d: %w", page, err)
		}
		if closeErr != nil {
			return closeErr
		}

		log.Debug().
			Int("page", page).
			Str("file", name).
			Int("dpi", opts.DPI).
			Msg("rendered page in-process")
	}
	return nil
}
