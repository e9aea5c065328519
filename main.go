package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/slmtnm/s4view/internal/browser"
	"github.com/slmtnm/s4view/internal/logging"
	"github.com/slmtnm/s4view/internal/metrics"
)

var (
	configFile = flag.String("config", "", "read configuration from `file` instead of the standard .s3cfg locations")
	logLevel   = flag.String("log-level", "", "override log_level (debug, info, warn, error)")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Usage: s4view [flags] <bucket|drive-root-id> [path]")
	fmt.Fprintln(out, "\ns4view is a TUI (Terminal User Interface) for browsing S3 buckets and Google Drive folders.")
	fmt.Fprintln(out, "It reads configuration from .s3cfg file (compatible with s3cmd).")
	fmt.Fprintln(out, "\nExample: s4view my-bucket photos/2020")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		cfg, err := LoadConfig(*configFile)
		if err != nil || cfg.Browser.Backend != BackendDrive {
			flag.Usage()
			os.Exit(1)
		}
		// Drive can start from its configured root.
		args = []string{cfg.Drive.RootID}
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*Config, error) {
	cfg, err := LoadConfig(*configFile)
	if err == nil {
		return cfg, nil
	}
	if *configFile != "" {
		return nil, err
	}

	fmt.Printf("No S3 configuration found: %s\n", err)
	fmt.Println()

	// Offer interactive setup
	s3cfg, err := InteractiveS3Setup(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Printf("Setup cancelled or failed: %s\n", err)
		fmt.Println("\nPlease create a .s3cfg file manually in one of these locations:")
		fmt.Println("  - Current directory: .s3cfg")
		fmt.Println("  - Home directory: ~/.s3cfg")
		fmt.Println("  - System directory: /etc/s3cfg")
		return nil, errors.New("no configuration")
	}
	return defaultConfig(s3cfg), nil
}

func openStorage(ctx context.Context, cfg *Config, root string) (browser.Storage, string, error) {
	switch cfg.Browser.Backend {
	case BackendDrive:
		driveCfg := cfg.Drive
		if root != "" {
			driveCfg.RootID = root
		}
		client, err := NewDriveClient(ctx, driveCfg)
		if err != nil {
			return nil, "", err
		}
		return client, "drive:" + driveCfg.RootID, nil

	default:
		client, err := NewS3Client(ctx, &cfg.S3, root, cfg.Browser.LinkTTL)
		if err != nil {
			return nil, "", fmt.Errorf("creating S3 client: %w", err)
		}

		// Test bucket access
		if err := client.HeadBucket(ctx); err != nil {
			fmt.Println("\nPlease check:")
			fmt.Println("  - Bucket name is correct")
			fmt.Println("  - Your credentials have access to this bucket")
			fmt.Println("  - Your S3 endpoint configuration is correct")
			return nil, "", err
		}
		return client, "s3://" + root, nil
	}
}

func run(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Browser.Log.Level = *logLevel
	}

	if err := logging.Init(cfg.Browser.Log); err != nil {
		return err
	}
	defer func() { _ = logging.Sync() }()
	log := logging.L()

	if addr := cfg.Browser.MetricsAddr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, title, err := openStorage(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	start := "#"
	if len(args) > 1 {
		start = browser.EncodeHash("/" + strings.Trim(args[1], "/"))
	}
	log.Info("starting",
		zap.String("config", cfg.Path),
		zap.String("backend", cfg.Browser.Backend),
		zap.String("root", args[0]),
		zap.String("path", start))

	cache := browser.NewListingCache()
	fetcher := browser.NewFetcher(storage, cache, logging.Named("fetcher"))
	prefetcher := browser.NewPrefetcher(fetcher, cfg.Browser.PrefetchWorkers, cfg.Browser.PrefetchQueue, logging.Named("prefetch"))
	defer prefetcher.Close()

	location := browser.NewMemoryHash(start)
	paths := browser.NewPathState(location)
	defer paths.Close()

	viewer := browser.NewViewer(fetcher, prefetcher, storage, paths, logging.Named("viewer"))
	viewer.Start(ctx)
	defer viewer.Stop()
	defer cancel()

	// Initialize and run TUI
	model := NewModel(ctx, viewer, location, title)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
