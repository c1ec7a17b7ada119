// cmd/servoctl/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/servo-replicator/internal/controltable/mx"
	"github.com/tamzrod/servo-replicator/internal/transport/dxl"
)

func main() {
	port := flag.String("port", "/dev/ttyUSB0", "serial port")
	baud := flag.Int("baud", 57600, "baud rate")
	timeoutMs := flag.Int("timeout-ms", 100, "status packet timeout in milliseconds")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error (debug traces frames)")
	dumpPath := flag.String("dump", "", "print a capture file and exit (no bus is opened)")
	flag.Parse()

	if *dumpPath != "" {
		if err := dumpFile(os.Stdout, *dumpPath); err != nil {
			fmt.Fprintf(os.Stderr, "dump failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	bus, err := dxl.Open(dxl.Config{
		Port:     *port,
		BaudRate: *baud,
		Timeout:  time.Duration(*timeoutMs) * time.Millisecond,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("open bus failed", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	sh := NewShell(mx.NewV2(), bus, bus, os.Stdout)
	if err := sh.Run(ctx); err != nil {
		logger.Error("shell failed", "err", err)
		os.Exit(1)
	}
}
