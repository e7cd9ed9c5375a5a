package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"layercrack/archive"
	"layercrack/candidate"
	"layercrack/challenge"
	"layercrack/config"
	"layercrack/diag"
	"layercrack/journal"
	"layercrack/logger"
	"layercrack/output"
	"layercrack/scanner"
	"layercrack/systeminfo"
	"layercrack/tracing"
	"layercrack/traversal"
	"layercrack/unlock"

	"github.com/olekukonko/tablewriter"
)

const (
	exitOK     = 0
	exitError  = 1
	exitFailed = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := tracing.Start(""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return exitError
	}
	logger.Init(cfg.LogLevel)

	if cfg.BuildChallenge != "" {
		path, err := challenge.Build(cfg.BuildChallenge)
		if err != nil {
			logger.Errorf("Failed to build challenge: %v", err)
			return exitError
		}
		fmt.Printf("Challenge written to %s\n", path)
		return exitOK
	}
	if cfg.InspectOnly {
		info, err := archive.Inspect(cfg.ArchivePath)
		if err != nil {
			logger.Errorf("Failed to inspect %s: %v", cfg.ArchivePath, err)
			return exitError
		}
		printInspect(os.Stdout, info)
		return exitOK
	}

	if cfg.TraceFlight {
		if err := tracing.StartFlightRecorder(cfg.TraceFlightMaxBytes, cfg.TraceFlightMinAge); err != nil {
			logger.Warnf("Failed to start flight recorder: %v", err)
		} else {
			defer func() {
				if err := tracing.WriteFlightRecorder(cfg.TraceFlightFile); err != nil {
					logger.Warnf("Failed to write flight recorder: %v", err)
				}
				tracing.StopFlightRecorder()
			}()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, cfg.TraceFlight, cfg.TraceFlightFile)

	var host *systeminfo.HostInfo
	if cfg.CollectSystemInfo {
		host = systeminfo.Collect(ctx)
	}
	if cfg.Workers == 0 {
		cfg.Workers = systeminfo.SuggestWorkers(ctx)
		logger.Infof("Using %d unlock workers", cfg.Workers)
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		logger.Errorf("Failed to load candidates: %v", err)
		return exitError
	}

	var j *journal.Journal
	if cfg.JournalDir != "" {
		j, err = journal.Open(cfg.JournalDir)
		if err != nil {
			logger.Errorf("Failed to open journal: %v", err)
			return exitError
		}
		defer j.Close()
		logger.Infof("Journal %s holds %d failed attempts", cfg.JournalDir, j.Len())
	}

	var attempts atomic.Int64
	unlocker := unlock.New(unlock.Options{
		Workers:       cfg.Workers,
		RateLimit:     cfg.MaxAttemptsPerSecond,
		Progress:      cfg.ShowProgress,
		ProgressEvery: cfg.ProgressEvery,
		Journal:       j,
		Counter:       &attempts,
	})

	writer, err := output.New(cfg, host)
	if err != nil {
		logger.Errorf("Failed to initialize output: %v", err)
		return exitError
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Warnf("Report may be incomplete: %v", err)
		}
	}()

	session := traversal.New(traversal.Options{
		WorkDir:      cfg.WorkDir,
		MaxLayers:    cfg.MaxLayers,
		LayerTimeout: cfg.LayerTimeout,
		Policy:       policy,
		SeedHint:     cfg.SeedHint,
		Unlocker:     unlocker,
		Scanner:      scanner.New(cfg),
		Observer:     writer,
	})

	if cfg.DiagStallThreshold > 0 {
		opts := diag.Options{
			StallThreshold: cfg.DiagStallThreshold,
			Dir:            cfg.DiagDir,
			GoroutineLeak:  cfg.DiagGoroutineLeak,
			AttemptsFn:     attempts.Load,
			LayerFn:        session.CurrentLayer,
		}
		if cfg.TraceFlight {
			opts.DumpFlightRecorder = tracing.WriteFlightRecorder
		}
		ctrl := diag.NewController(opts)
		ctrl.Start(ctx)
		defer ctrl.Close()
	}

	logger.Infof("Cracking %s (work dir %s)", cfg.ArchivePath, cfg.WorkDir)
	summary := session.Run(ctx, cfg.ArchivePath)
	writer.WriteSummary(summary)
	printSummary(os.Stdout, summary)
	logger.Infof("Report written to %s", writer.Path())

	if summary.Status != traversal.StatusComplete {
		return exitFailed
	}
	return exitOK
}

func buildPolicy(cfg *config.Config) (candidate.Policy, error) {
	policy := candidate.DefaultPolicy()
	static, err := cfg.StaticList()
	if err != nil {
		return policy, err
	}
	if len(static) > 0 {
		policy.Static = static
	}
	policy.BaseWords = cfg.BaseWords
	policy.NumericFallback = cfg.NumericFallback
	policy.KnowledgeLimit = cfg.KnowledgeLimit
	return policy, nil
}

func handleSignals(cancelFunc context.CancelFunc, traceFlight bool, traceFlightFile string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	handleSignalEvent(cancelFunc, traceFlight, traceFlightFile, sigChan)
}

func handleSignalEvent(cancelFunc context.CancelFunc, traceFlight bool, traceFlightFile string, sigChan <-chan os.Signal) {
	sig := <-sigChan
	logger.Infof("Received %v, abandoning the current layer...", sig)

	if traceFlight {
		if err := tracing.WriteFlightRecorder(traceFlightFile); err != nil {
			logger.Warnf("Failed to write flight recorder: %v", err)
		}
	}
	cancelFunc()
}

func printSummary(w io.Writer, sum traversal.Summary) {
	fmt.Fprintf(w, "Status: %s\n", sum.Status)
	fmt.Fprintf(w, "Layers cracked: %d\n", sum.LayersCracked)
	fmt.Fprintf(w, "Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))
	for _, p := range sum.Passwords {
		fmt.Fprintf(w, "  layer %d: %s\n", p.Layer, p.Password)
	}
	fmt.Fprintf(w, "Hints collected: %d\n", sum.HintsCollected)
	if sum.Status == traversal.StatusFailed {
		fmt.Fprintf(w, "Failed at layer %d: %s\n", sum.FailedLayer, sum.Reason)
	}
}

func printInspect(w io.Writer, info archive.Info) {
	fmt.Fprintf(w, "%s (%s, %d bytes, %d/%d entries encrypted)\n", info.Path, info.Format, info.Size, info.Encrypted, len(info.Entries))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Size", "Compressed", "Encrypted"})
	for _, e := range info.Entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		table.Append([]string{
			name,
			strconv.FormatUint(e.Size, 10),
			strconv.FormatUint(e.CompressedSize, 10),
			strconv.FormatBool(e.Encrypted),
		})
	}
	table.Render()
}
