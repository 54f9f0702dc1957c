package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/noveld/internal/book"
	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/epub"
	"github.com/brogergvhs/noveld/internal/fetcher"
	"github.com/brogergvhs/noveld/internal/persist"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/runner"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagNovel   string
	flagStart   int
	flagMax     int
	flagSite    string
	flagBaseURL string

	// runtime
	flagOutput          string
	flagDelay           float64
	flagCheckpointEvery int
	flagDryRun          bool
	flagNoProgress      bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCloudflare bool
)

const clientTimeout = 60 * time.Second

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a novel's chapters into an EPUB. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVarP(&flagNovel, "novel", "n", "", "novel slug as it appears in the URL (e.g. shadow-slave)")
	downloadCmd.Flags().IntVarP(&flagStart, "start", "s", 0, "first chapter to download")
	downloadCmd.Flags().IntVarP(&flagMax, "max", "m", 0, "maximum number of chapters (0 = all)")
	downloadCmd.Flags().StringVar(&flagSite, "site", "", "site template ("+strings.Join(providers.Names(), ", ")+")")
	downloadCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "override the site base URL (mirrors)")

	// runtime
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output EPUB file (default {novel}.epub)")
	downloadCmd.Flags().Float64VarP(&flagDelay, "delay", "d", 1, "delay between chapter requests in seconds")
	downloadCmd.Flags().IntVar(&flagCheckpointEvery, "checkpoint-every", 0, "write a progress checkpoint every N chapters")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "fetch and print the novel metadata, don’t download chapters")
	downloadCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "disable the progress bar")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "route requests through the Cloudflare bypass transport")

	rootCmd.AddCommand(downloadCmd)
}

func downloadOptions(cmd *cobra.Command) config.Options {
	opts := config.Options{
		IgnoreConfig:    flagIgnoreConfig,
		Debug:           flagDebug,
		Site:            flagSite,
		BaseURL:         flagBaseURL,
		Novel:           flagNovel,
		StartChapter:    flagStart,
		Output:          flagOutput,
		CheckpointEvery: flagCheckpointEvery,
		Cookie:          flagCookie,
		CookieFile:      flagCookieFile,
		UserAgent:       flagUserAgent,
		Cloudflare:      flagCloudflare,
		NoProgress:      flagNoProgress,
	}

	if cmd.Flags().Changed("max") {
		opts.MaxChapters = &flagMax
	}
	if cmd.Flags().Changed("delay") {
		opts.DelaySeconds = &flagDelay
	}

	return opts
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.LoadMerged(downloadOptions(cmd))
	if err != nil {
		return err
	}

	logSvc, err := ui.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logSvc.Sync()

	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	fmt.Println("Full config:")
	cfg.Print()
	fmt.Println()

	slug := book.NormalizeSlug(cfg.Novel)
	if slug == "" {
		return fmt.Errorf("missing --novel and no novel in config")
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:     clientTimeout,
		UserAgent:   cfg.UserAgent,
		Cookie:      cfg.Cookie,
		CookieFile:  cfg.CookieFile,
		Cloudflare:  cfg.Cloudflare,
		DebugLogger: logSvc,
	})
	if err != nil {
		return err
	}

	site, err := providers.Lookup(cfg.Site, cfg.BaseURL)
	if err != nil {
		return err
	}

	novelLog := logSvc.With("novel", slug)
	src := providers.NewSource(site, fetcher.New(client, novelLog), slug, novelLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if flagDryRun {
		return dryRun(ctx, src, cfg)
	}

	output := cfg.OutputPath(slug)
	stats := &ui.Stats{}
	p := persist.New(epub.NewWriter(), output, cfg.CheckpointEvery, logSvc).WithStats(stats)

	opts := []runner.Option{runner.WithStats(stats)}

	var pm *ui.MPBProgressManager
	if cfg.Progress {
		pm = ui.NewProgressManager()
		opts = append(opts, runner.WithProgress(pm.Register(slug, cfg.MaxChapters)))
	}

	r := runner.New(runner.Config{
		Start: cfg.StartChapter,
		Max:   cfg.MaxChapters,
		Delay: time.Duration(cfg.DelaySeconds * float64(time.Second)),
	}, src, p, novelLog, opts...)

	release := util.OnInterrupt(func(sig os.Signal, count int) {
		if count == 1 {
			logSvc.Warnf("Received %s, finishing the current chapter (repeat to abort the request)", sig)
			r.Stop()
			return
		}
		logSvc.Warnf("Received %s again, cancelling the in-flight request", sig)
		cancel()
	})
	defer release()

	logSvc.Infof("Starting download: %s", slug)
	start := time.Now()

	res, err := r.Run(ctx)

	if pm != nil {
		pm.Close()
	}

	if err != nil {
		if errors.Is(err, providers.ErrMetadataUnavailable) {
			return fmt.Errorf("aborting, no output written: %w", err)
		}
		return err
	}

	printSummary(res, stats, time.Since(start))

	return nil
}

func dryRun(ctx context.Context, src *providers.Source, cfg *config.Config) error {
	meta, err := src.FetchMetadata(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Dry-run: novel metadata")
	fmt.Printf("Title:    %s\n", meta.Title)
	fmt.Printf("Author:   %s\n", meta.Author)
	if meta.Status != "" {
		fmt.Printf("Status:   %s\n", meta.Status)
	}
	if len(meta.Genres) > 0 {
		fmt.Printf("Genres:   %s\n", strings.Join(meta.Genres, ", "))
	}
	if meta.CoverURL != "" {
		fmt.Printf("Cover:    %s\n", meta.CoverURL)
	}
	fmt.Printf("Source:   %s\n", meta.SourceURL)
	fmt.Printf("Output:   %s\n", cfg.OutputPath(src.Slug()))

	return nil
}

func printSummary(res runner.Result, stats *ui.Stats, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("Download Summary:")
	if res.Chapters > 0 {
		fmt.Printf("Chapters: %d (%d-%d)\n", res.Chapters, res.First, res.Last)
	} else {
		fmt.Println("Chapters: 0")
	}
	if res.Reason != runner.ReasonNone {
		fmt.Printf("Stopped:  %s\n", res.Reason)
	}
	fmt.Printf("Data:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Printf("Saves:    %d checkpoints\n", stats.Checkpoints.Load())
	fmt.Printf("Time:     %s\n", util.Elapsed(elapsed))

	if !res.Persisted {
		fmt.Println("\nThe EPUB could not be finalized. A temporary file with progress has been saved:")
		fmt.Println("  ", util.AbsPath(res.TempPath))
		return
	}

	fmt.Printf("Saved:    %s (%s)\n", util.AbsPath(res.Output), util.Human(util.FileSize(res.Output)))
	fmt.Println("\nAll done.")
}
