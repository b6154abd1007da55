// Command mavbridge bridges a MAVLink-speaking vehicle with web
// clients: a live REST/JSON mirror of every message seen, WebSocket
// push with regex filtering, and a send path back onto the link.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mavbridge-dev/mavbridge/internal/config"
	"github.com/mavbridge-dev/mavbridge/internal/httpapi"
	"github.com/mavbridge-dev/mavbridge/internal/link"
	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
	"github.com/mavbridge-dev/mavbridge/internal/metrics"
	"github.com/mavbridge-dev/mavbridge/internal/store"
	"github.com/mavbridge-dev/mavbridge/internal/ws"
)

func main() {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "mavbridge",
		Short: "Bridge a MAVLink link to HTTP and WebSocket clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	config.BindFlags(root, cfg)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := log.LstdFlags
	logger := log.New(os.Stderr, "[mavbridge] ", logLevel)
	if cfg.Logging.Verbose {
		logger.SetPrefix("[mavbridge:debug] ")
	}

	m := metrics.New(prometheus.NewRegistry())

	lnk, err := link.New(link.Config{
		Connect:     cfg.MAVLink.Connect,
		Version:     cfg.MAVLink.Version,
		SystemID:    cfg.MAVLink.SystemID,
		ComponentID: cfg.MAVLink.ComponentID,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		logger.Printf("fatal: %v", err)
		return err
	}
	defer lnk.Close()

	st := store.New()

	wsManager := ws.New(func(text string) error {
		var env mavlinkcodec.Envelope
		if err := env.UnmarshalJSON([]byte(text)); err != nil {
			return err
		}
		if _, err := lnk.Send(env.Message); err != nil {
			return err
		}
		st.Update(env.Header, env.Message)
		m.StoreUpdates.Inc()
		return nil
	}, m)

	httpSrv := httpapi.New(cfg, lnk, st, wsManager, m, logger)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpSrv.Handler(),
	}

	go demultiplex(lnk, st, wsManager, m, logger)

	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("http server: %v", err)
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// demultiplex is the main ingest loop: every inbound envelope updates
// the store and fans out to WebSocket subscribers.
func demultiplex(lnk *link.Handle, st *store.Store, wsManager *ws.Manager, m *metrics.Metrics, logger *log.Logger) {
	for env := range lnk.Inbound() {
		m.LinkMessagesReceived.Inc()
		st.Update(env.Header, env.Message)
		m.StoreUpdates.Inc()
		wsManager.Broadcast(env)
	}
}

func waitForShutdown(logger *log.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Println("shutting down")
}
