package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/collection"
	"github.com/scottpeterman/velocitycmdb/internal/health"
	"github.com/scottpeterman/velocitycmdb/internal/inventory"
	"github.com/scottpeterman/velocitycmdb/internal/jobsched"
	"github.com/scottpeterman/velocitycmdb/internal/logging"
	"github.com/scottpeterman/velocitycmdb/internal/progress"
)

var runOpts struct {
	host     string
	port     int
	ssl      bool
	certFile string
	keyFile  string
	noDebug  bool
}

// runCmd launches the thin HTTP server exposing health, Prometheus metrics,
// and a WebSocket bridge for collection progress — the narrow surface the
// web dashboard (an external collaborator per the system's scope) consumes.
// It does not itself serve the dashboard's HTML/JS.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the HTTP server (health, metrics, progress WebSocket bridge)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runOpts.noDebug {
			logging.SetLevel("info")
		}

		checker := health.NewChecker()

		schedDoc, schedPath, err := loadSchedule()
		if err != nil {
			return newExitError(2, "run: %v", err)
		}
		sched := jobsched.NewScheduler(app.cc, app.reg, app.st, captureRoot(app.dataDir), app.cfg)
		if err := sched.LoadAndStart(schedDoc); err != nil {
			return newExitError(2, "run: %v", err)
		}
		app.cc.Log.WithField("schedule_path", schedPath).WithField("jobs", len(schedDoc.Jobs)).Info("scheduler started")

		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", healthHandler(checker))
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/ws/collect", collectWSHandler)

		addr := fmt.Sprintf("%s:%d", runOpts.host, runOpts.port)
		srv := &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if runOpts.ssl {
				app.cc.Log.WithField("addr", addr).Info("velocitycmdb server listening (https)")
				errCh <- srv.ListenAndServeTLS(runOpts.certFile, runOpts.keyFile)
			} else {
				app.cc.Log.WithField("addr", addr).Info("velocitycmdb server listening (http)")
				errCh <- srv.ListenAndServe()
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return newExitError(2, "server: %v", err)
			}
		case <-sigCh:
			app.cc.Log.Info("shutting down")
			<-sched.Stop().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return newExitError(2, "server shutdown: %v", err)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.host, "host", "127.0.0.1", "Bind address")
	runCmd.Flags().IntVar(&runOpts.port, "port", 8443, "Bind port")
	runCmd.Flags().BoolVar(&runOpts.ssl, "ssl", false, "Serve over TLS")
	runCmd.Flags().StringVar(&runOpts.certFile, "tls-cert", "", "TLS certificate path (with --ssl)")
	runCmd.Flags().StringVar(&runOpts.keyFile, "tls-key", "", "TLS key path (with --ssl)")
	runCmd.Flags().BoolVar(&runOpts.noDebug, "no-debug", false, "Force info-level logging regardless of --verbose")
}

func healthHandler(checker *health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := health.Target{
			DataDir:     app.dataDir,
			Store:       app.st,
			Credentials: app.cc.Credentials,
		}
		report := checker.Run(r.Context(), target)
		w.Header().Set("Content-Type", "application/json")
		if report.Overall == health.StatusCritical {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}

// collectWSHandler triggers a collection run from query parameters and
// streams its progress events over the upgraded WebSocket connection until
// the terminal summary event, matching the same event bytes the CLI's
// --json mode prints to stdout.
func collectWSHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	invPath := q.Get("inventory")
	if invPath == "" {
		http.Error(w, "inventory query parameter required", http.StatusBadRequest)
		return
	}

	inv, err := inventory.Load(invPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	selected, err := selectDevices(inv, q.Get("devices"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var types []string
	if t := q.Get("types"); t != "" {
		for _, name := range strings.Split(t, ",") {
			if name = strings.TrimSpace(name); name != "" {
				types = append(types, name)
			}
		}
	}

	_, events, err := app.reg.Start(r.Context(), app.cc, app.st, captureRoot(app.dataDir), selected, app.cfg, collection.Options{
		CaptureTypes: types,
		AutoLoadDB:   q.Get("auto_load_db") == "true",
		Username:     q.Get("username"),
		Password:     q.Get("password"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	progress.ServeWebSocket(w, r, events)
}
