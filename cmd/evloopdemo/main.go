// Command evloopdemo drives an evloop.Loop from the command line: a repeat
// timer ticks at an interval, an async handle can be woken from a separate
// goroutine, and (optionally) a Prometheus endpoint exposes the loop's
// metrics. It exists to exercise the package end-to-end the way a real
// program would, not as a protocol implementation of its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/go-aio/evloop"
)

var (
	cfgPath  string
	interval time.Duration
	ticks    int
)

var rootCmd = &cobra.Command{
	Use:   "evloopdemo",
	Short: "Run a small evloop.Loop and report what it does",
	Long: `evloopdemo builds a single evloop.Loop, arms a repeating timer and
an async wakeup handle, and runs the loop in its default run mode until a
fixed number of ticks have fired (or until interrupted).`,
	RunE: runDemo,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "evloopdemo: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "path to a TOML config file (optional)")
	rootCmd.Flags().DurationVar(&interval, "interval", time.Second, "timer repeat interval")
	rootCmd.Flags().IntVar(&ticks, "ticks", 5, "number of timer ticks before exiting")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := evloop.DefaultConfig()
	if cfgPath != "" {
		loaded, err := evloop.LoadConfigFile(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := buildLogger(cfg.LogLevel)

	var metrics *evloop.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = evloop.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Err().Err(err).Log("metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	loop, err := evloop.NewLoop(
		evloop.WithLogger(logger),
		evloop.WithMetrics(metrics),
		evloop.WithBufferSize(cfg.BufferSize),
	)
	if err != nil {
		return fmt.Errorf("new loop: %w", err)
	}
	defer loop.Close()

	remaining := ticks
	var async *evloop.Async
	async, err = evloop.NewAsync(loop, func(a *evloop.Async) {
		logger.Info().Log("async wakeup observed")
	})
	if err != nil {
		return fmt.Errorf("new async: %w", err)
	}

	timer := evloop.NewTimer(loop)
	timer.Start(func(t *evloop.Timer) {
		remaining--
		logger.Info().Logf("tick, %d remaining", remaining)
		if remaining <= 0 {
			t.Stop()
			async.Close(nil)
		}
	}, interval.Milliseconds(), interval.Milliseconds())

	go func() {
		time.Sleep(interval / 2)
		async.Send()
	}()

	for loop.Run(evloop.RunDefault) {
	}
	return nil
}

func buildLogger(level string) *logiface.Logger[logiface.Event] {
	concrete := stumpy.L.New(
		stumpy.L.WithStumpy(),
		logiface.WithLevel[*stumpy.Event](parseLevel(level)),
	)
	return concrete.Logger()
}

func parseLevel(s string) logiface.Level {
	switch s {
	case "trace":
		return logiface.LevelTrace
	case "debug":
		return logiface.LevelDebug
	case "warning", "warn":
		return logiface.LevelWarning
	case "error":
		return logiface.LevelError
	case "disabled", "off":
		return logiface.LevelDisabled
	default:
		return logiface.LevelInformational
	}
}
