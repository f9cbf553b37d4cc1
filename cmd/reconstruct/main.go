package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lobrecon/catalog"
	"lobrecon/config"
	"lobrecon/controlplane"
	"lobrecon/pipeline"
	"lobrecon/telemetry"
)

// stubRowSource is the seam archive extraction and CSV parsing would fill
// in a real deployment; pipeline.RowSource only promises typed Go rows in
// codec.SnapshotSchema/codec.OrderSchema column order, never how they got
// that way, per the out-of-repo extraction boundary the seam documents.
type stubRowSource struct{}

func (stubRowSource) Rows(asset, date string) (snapshotRows, orderRows [][]int64, err error) {
	return nil, nil, fmt.Errorf("cmd/reconstruct: no RowSource wired for %s/%s: %w", asset, date, pipeline.ErrNoRows)
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to pipeline config YAML")
	flag.Parse()

	// ---------------- Config ----------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// ---------------- Catalog ----------------

	cat, err := catalog.Open(cfg.CatalogDir)
	if err != nil {
		log.Fatalf("catalog open failed: %v", err)
	}
	defer cat.Close()

	instruments, err := catalog.LoadInstruments(cfg.InstrumentsFile)
	if err != nil {
		log.Fatalf("instrument list load failed: %v", err)
	}

	dates, err := catalog.DiscoverDates(cfg.ArchiveBase, cfg.DatabaseBase, cfg.ArchiveExtension)
	if err != nil {
		log.Fatalf("date discovery failed: %v", err)
	}
	dates = catalog.FilterRange(dates, cfg.DateRange.Start, cfg.DateRange.End)
	if len(dates) == 0 {
		log.Fatalf("no dates in range %s..%s under %s", cfg.DateRange.Start, cfg.DateRange.End, cfg.ArchiveBase)
	}

	// ---------------- Telemetry ----------------

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Println("[reconstruct] metrics listening on :9090")
		if err := http.ListenAndServe(":9090", mux); err != nil {
			log.Printf("[reconstruct] metrics server stopped: %v", err)
		}
	}()

	// ---------------- Control plane ----------------

	ctrl, err := controlplane.NewServer(cfg.GRPCHost, cfg.GRPCPort)
	if err != nil {
		log.Fatalf("controlplane listen failed: %v", err)
	}
	go func() {
		if err := ctrl.Serve(); err != nil {
			log.Printf("[reconstruct] controlplane server stopped: %v", err)
		}
	}()

	// ---------------- Orchestrator ----------------

	orch := pipeline.NewOrchestrator(cfg, cat, instruments, stubRowSource{}).
		WithMetrics(metrics).
		WithControlPlane(ctrl)
	log.Printf("[reconstruct] run %s starting over %d dates", orch.RunID(), len(dates))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("[reconstruct] shutdown signal received")
		cancel()
	}()

datesLoop:
	for _, date := range dates {
		select {
		case <-ctx.Done():
			log.Println("[reconstruct] stopping before remaining dates")
			break datesLoop
		default:
		}
		if err := orch.RunDate(ctx, date); err != nil {
			log.Printf("[reconstruct] date %s failed: %v", date, err)
			continue
		}
		log.Printf("[reconstruct] date %s analyzed", date)
	}

	ctrl.Stop(5 * time.Second)
}
