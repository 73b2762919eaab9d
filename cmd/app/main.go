package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/gsraster/internal/config"
	"github.com/local/gsraster/internal/converter"
	"github.com/local/gsraster/internal/fetch"
	"github.com/local/gsraster/internal/gs"
	logpkg "github.com/local/gsraster/internal/logger"
	"github.com/local/gsraster/internal/metrics"
	"github.com/local/gsraster/internal/pagecount"
	"github.com/local/gsraster/internal/store"
)

func main() {
	// run owns all deferred cleanup; exiting here keeps those defers intact
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	var (
		input      = flag.String("in", "", "input document: path, file://, http(s):// or s3:// reference")
		outDir     = flag.String("out", ".", "output directory (must already exist)")
		format     = flag.String("format", "jpeg", "output format: jpeg or pngalpha")
		startPage  = flag.Int("start-page", 0, "number of leading pages to skip")
		batchSize  = flag.Int("batch-size", 0, "pages per batch, 0 converts the whole document in one invocation")
		resolution = flag.Int("resolution", 300, "render resolution in DPI")
		quality    = flag.Int("quality", 100, "JPEG compression quality 0-100")
		alphaBits  = flag.Int("alpha-bits", 4, "PNG alpha channel bits 1-4")
		keepColors = flag.Bool("color-management", false, "keep ICC color management enabled")
		keepFonts  = flag.Bool("font-embedding", false, "keep font embedding enabled")
		keepAnnots = flag.Bool("annotations", false, "keep annotation rendering enabled")
	)
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "missing -in, see -help")
		return 2
	}
	fmtv, err := gs.ParseFormat(*format)
	if err != nil {
		log.Error().Err(err).Msg("bad -format")
		return 2
	}

	// Only flags the user actually set populate the user settings layer, so
	// defaults stay distinguishable from explicit values.
	user := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "start-page":
			user[cfgpkg.KeyStartPage] = *startPage
		case "batch-size":
			user[cfgpkg.KeyBatchSize] = *batchSize
		case "resolution":
			user[cfgpkg.KeyResolution] = *resolution
		case "quality":
			user[cfgpkg.KeyCompressionQuality] = *quality
		case "alpha-bits":
			user[cfgpkg.KeyAlphaBits] = *alphaBits
		case "color-management":
			user[cfgpkg.KeyDisableColorManagement] = !*keepColors
		case "font-embedding":
			user[cfgpkg.KeyDisableFontEmbedding] = !*keepFonts
		case "annotations":
			user[cfgpkg.KeyDisableAnnotations] = !*keepAnnots
		}
	})
	settings := cfgpkg.NewSettings(user)

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listener started")
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local, cleanup, err := fetch.ToLocal(ctx, *input)
	if err != nil {
		log.Error().Err(err).Str("ref", *input).Msg("failed to fetch input document")
		return 1
	}
	defer cleanup()

	runner := gs.ExecRunner{Timeout: cfg.Runner.InvocationTimeout}

	var pages pagecount.Counter = pagecount.PDFCPU{}
	switch cfg.Runner.PageCounter {
	case "fitz":
		pages = pagecount.Fitz{}
	case "gs":
		if bin, err := gs.Locate(ctx, runner); err == nil {
			pages = pagecount.Ghostscript{Bin: bin, Runner: runner}
		} else {
			log.Warn().Err(err).Msg("ghostscript page count oracle unavailable, using pdfcpu")
		}
	}

	conv := converter.New(runner, pages, converter.Options{
		Workers:  cfg.Runner.Concurrency,
		FailFast: cfg.Runner.FailFast,
		Fallback: cfg.Runner.FallbackRender,
	})
	if cfg.Status.RedisURL != "" {
		runs, err := store.NewRedisRuns(cfg.Status.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis status store disabled")
		} else {
			conv.WithStatusStore(runs)
			defer runs.Close()
		}
	}

	report, err := conv.Convert(ctx, converter.Job{
		Input:     local,
		OutputDir: *outDir,
		Format:    fmtv,
		Settings:  settings,
	})
	if err != nil {
		log.Error().Err(err).Msg("conversion failed")
		return 1
	}

	for _, r := range report.Results {
		state := "ok"
		switch {
		case r.Skipped:
			state = "skipped"
		case r.Failed():
			state = fmt.Sprintf("failed (exit %d)", r.ExitCode)
		}
		fmt.Printf("batch %d: pages %d-%d %s in %s\n", r.Index, r.First, r.Last, state, r.Duration.Round(10*time.Millisecond))
	}
	fmt.Printf("run %s: %d pages, %d batches, %d failed, %d skipped, %s total\n",
		report.RunID, report.TotalPages, len(report.Results), report.FailedCount(), report.SkippedCount(), report.Duration.Round(10*time.Millisecond))

	if !report.OK() {
		return 1
	}
	return 0
}
