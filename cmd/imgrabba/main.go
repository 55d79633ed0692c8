// Command imgrabba downloads a list of image URLs into a directory.
//
//	imgrabba [-config file] [-dest dir] [-workers n] [-timeout d] [-input file] [url...]
//
// URLs are taken from the arguments and from -input, one per line ("-" reads
// stdin). Item failures are reported but do not change the exit status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iconidentify/imgrabba/internal/config"
	"github.com/iconidentify/imgrabba/internal/domain"
	"github.com/iconidentify/imgrabba/internal/downloader"
	"github.com/iconidentify/imgrabba/internal/repository"
	"github.com/iconidentify/imgrabba/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imgrabba", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to config file")
	dest := fs.String("dest", "", "Destination directory (default: storage base path)")
	workers := fs.Int("workers", 0, "Maximum concurrent downloads (default: worker count)")
	timeout := fs.Duration("timeout", 0, "Per-image request timeout (default: fetch timeout)")
	input := fs.String("input", "", "File with one URL per line, - for stdin")
	verbose := fs.Bool("v", false, "Verbose logging")
	showVersion := fs.Bool("version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "imgrabba %s (built %s)\n", Version, BuildTime)
		return 0
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *dest != "" {
		cfg.Storage.BasePath = *dest
	}
	if *workers > 0 {
		cfg.Worker.Count = *workers
	}
	if *timeout > 0 {
		cfg.Fetch.Timeout = *timeout
	}

	urls := fs.Args()
	if *input != "" {
		fromFile, err := loadURLs(*input, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		urls = append(urls, fromFile...)
	}

	fetcher := downloader.NewHTTPFetcher(cfg.Fetch, cfg.Storage)
	fetcher.SetLogger(logger)
	svc := service.NewBatchService(
		fetcher,
		repository.NewInMemoryBatchRepository(),
		cfg.Storage,
		cfg.Worker,
		logger,
	)

	fmt.Fprintf(stdout, "Starting download of %d images to %s...\n", len(urls), cfg.Storage.BasePath)

	start := time.Now()
	_, summary, err := svc.FetchAll(ctx, urls, cfg.Storage.BasePath, cfg.Worker.Count, func(res domain.DownloadResult) {
		if res.OK() {
			fmt.Fprintf(stdout, "✓ Downloaded: %s\n", filepath.Base(res.Path))
			return
		}
		fmt.Fprintf(stdout, "✗ Failed: %s: %v\n", res.URL, res.Err)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDestination) {
			fmt.Fprintf(stderr, "Error: cannot use destination %s: %v\n", cfg.Storage.BasePath, err)
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Download completed! %s images downloaded successfully.\n", summary)
	logger.Info("done", "elapsed", time.Since(start))

	return 0
}
