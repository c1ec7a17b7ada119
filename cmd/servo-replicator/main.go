// cmd/servo-replicator/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tamzrod/servo-replicator/internal/capture"
	"github.com/tamzrod/servo-replicator/internal/config"
	"github.com/tamzrod/servo-replicator/internal/controltable/mx"
	"github.com/tamzrod/servo-replicator/internal/poller"
	"github.com/tamzrod/servo-replicator/internal/status"
	"github.com/tamzrod/servo-replicator/internal/transport/dxl"
	"github.com/tamzrod/servo-replicator/internal/writer"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: servo-replicator [-log-level level] <config.yaml>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), logger); err != nil {
		logger.Error("replicator stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, logger *slog.Logger) error {
	schema := mx.NewV2()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg, schema); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	r := cfg.Replicator

	// --------------------
	// Bus
	// --------------------

	bus, err := dxl.Open(dxl.Config{
		Port:     r.Bus.Port,
		BaudRate: r.Bus.BaudRate,
		Timeout:  time.Duration(r.Bus.TimeoutMs) * time.Millisecond,
		Logger:   logger.With("component", "dxl"),
	})
	if err != nil {
		return err
	}
	defer bus.Close()

	probe(ctx, bus, r.Groups, logger)

	// --------------------
	// Writer clients (DATA + STATUS), shared by all groups
	// --------------------

	clients, closeWriters, err := writer.BuildEndpointClients(r, writer.DialModbus)
	if err != nil {
		return fmt.Errorf("writer clients failed: %w", err)
	}
	defer closeWriters()

	// --------------------
	// Optional capture
	// --------------------

	var rec recorder
	if r.Record != "" {
		c, err := capture.Create(r.Record)
		if err != nil {
			return err
		}
		defer c.Close()
		rec = c
		logger.Info("recording poll results", "path", r.Record, "run_id", c.RunID())
	}

	// --------------------
	// Build per-group pipelines
	// --------------------

	var wg sync.WaitGroup

	for _, g := range r.Groups {
		p, err := poller.Build(g, schema, bus)
		if err != nil {
			return fmt.Errorf("poller build failed (group=%s): %w", g.ID, err)
		}

		plan, err := writer.BuildPlan(g, schema, r.StatusMemory)
		if err != nil {
			return fmt.Errorf("writer plan failed (group=%s): %w", g.ID, err)
		}

		pl := &pipeline{
			groupID: g.ID,
			data:    writer.New(plan, clients),
			tracker: status.NewTracker(len(g.Devices)),
			rec:     rec,
			log:     logger.With("group", g.ID),
		}
		if sw, enabled := writer.NewGroupStatusWriter(plan, clients); enabled {
			pl.status = sw
		}

		// ---- channel between poller and pipeline ----
		out := make(chan poller.PollResult)

		wg.Add(2)
		go func() {
			defer wg.Done()
			pl.run(ctx, out)
		}()
		go func() {
			defer wg.Done()
			p.Run(ctx, out)
		}()

		logger.Info("group started",
			"group", g.ID,
			"devices", g.Devices,
			"span_addr", p.Span().Address,
			"span_len", p.Span().Length,
			"interval_ms", g.Poll.IntervalMs,
		)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
	return nil
}

// probe pings every configured servo once and logs what answered.
// A silent servo is not fatal; its group reports the error on every poll.
func probe(ctx context.Context, bus *dxl.Client, groups []config.GroupConfig, logger *slog.Logger) {
	for _, g := range groups {
		for _, id := range g.Devices {
			model, fw, err := bus.Ping(ctx, id)
			if err != nil {
				logger.Warn("servo did not answer ping", "group", g.ID, "id", id, "err", err)
				continue
			}
			logger.Info("servo found", "group", g.ID, "id", id, "model", model, "firmware", fw)
		}
	}
}

type recorder interface {
	Record(res poller.PollResult) error
}

// pipeline owns one group's delivery state (runner-owned state + 1Hz seconds ticker).
type pipeline struct {
	groupID string
	data    writer.Writer
	status  writer.StatusWriter // nil => status disabled
	tracker *status.Tracker
	rec     recorder // nil => no capture
	log     *slog.Logger
}

func (pl *pipeline) run(ctx context.Context, in <-chan poller.PollResult) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	pl.start()

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-in:
			pl.handle(res)
		case <-secTicker.C:
			pl.tick()
		}
	}
}

// start writes the full status block once (identity re-assert).
func (pl *pipeline) start() {
	if pl.status == nil {
		return
	}
	if err := pl.status.WriteStatus(pl.tracker.Snapshot()); err != nil {
		pl.log.Warn("status write failed on start", "err", err)
	}
}

func (pl *pipeline) handle(res poller.PollResult) {
	if pl.rec != nil {
		if err := pl.rec.Record(res); err != nil {
			pl.log.Warn("capture failed", "err", err)
		}
	}

	// --- data delivery ---
	if err := pl.data.Write(res); err != nil {
		pl.log.Error("writer error", "err", err)
	}

	if res.Err != nil {
		pl.log.Debug("poll failed", "err", res.Err)
	}

	// --- status update (group-level truth) ---
	var (
		snap    status.Snapshot
		changed bool
	)
	if res.Err == nil {
		snap, changed = pl.tracker.Success()
	} else {
		snap, changed = pl.tracker.Failure(errorCode(res.Err))
	}

	if changed && pl.status != nil {
		if err := pl.status.WriteStatus(snap); err != nil {
			pl.log.Warn("status write failed", "err", err)
		}
	}
}

func (pl *pipeline) tick() {
	snap, changed := pl.tracker.Tick()
	if changed && pl.status != nil {
		if err := pl.status.WriteStatus(snap); err != nil {
			pl.log.Warn("status seconds tick write failed", "err", err)
		}
	}
}

// errorCode extracts the device error number from a poll error.
// Errors without a code report status.ErrorCodeGeneric.
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var coder interface{ Code() uint16 }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return status.ErrorCodeGeneric
}
