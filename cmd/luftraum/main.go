package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luftraum/internal/config"
	"luftraum/internal/web"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "audit-summary":
			os.Exit(runAuditSummary(os.Args[2:]))
		case "replay":
			os.Exit(runReplay(os.Args[2:]))
		}
	}

	var configPath string
	flag.StringVar(&configPath, "config", "./luftraum.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// runService returns only after its deferred cleanup has run.
	if err := runService(cfg); err != nil {
		log.Fatalf("luftraum stopped: %v", err)
	}
}

func runService(cfg config.Config) error {
	logs := web.NewLogBuffer(500)
	logCloser := setupLogging(cfg.Log, logs)
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(cfg, logs)
	if err != nil {
		return fmt.Errorf("runtime init: %w", err)
	}
	defer rt.Close()

	log.Printf("luftraum starting sbs_servers=%d mqtt_brokers=%d", len(cfg.SBSServers), len(cfg.MQTTBrokers))
	if err := rt.Run(ctx); err != nil {
		return err
	}
	log.Printf("luftraum stopping")
	return nil
}

func runAuditSummary(args []string) int {
	fs := flag.NewFlagSet("audit-summary", flag.ContinueOnError)
	path := fs.String("path", "raw_messages.log", "Audit log to summarize")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := printAuditSummary(os.Stdout, *path); err != nil {
		fmt.Fprintf(os.Stderr, "audit-summary: %v\n", err)
		return 1
	}
	return 0
}

func runReplay(args []string) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	path := fs.String("path", "raw_messages.log", "Audit log to replay")
	speed := fs.Float64("speed", 0, "Playback speed; 0 replays without waiting")
	interval := fs.Duration("evict-interval", 10*time.Second, "Eviction tick in recorded time")
	after := fs.Duration("evict-after", 60*time.Second, "Evict tracks silent for this long")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := replayOptions{Speed: *speed, EvictInterval: *interval, EvictAfter: *after}
	if err := printReplay(ctx, os.Stdout, *path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 1
	}
	return 0
}
