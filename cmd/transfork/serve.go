package main

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/okdaichi/transfork/transfork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a relay",
		Long: `Run a relay that forwards every track announced by one connection
to all other connections.

The HTTP address serves the certificate fingerprint at /fingerprint,
Prometheus metrics at /metrics and a WebSocket feed of relay events at
/events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "QUIC address to listen on (TRANSFORK_ADDR)")
	cmd.Flags().StringVar(&cfg.Cert, "cert", cfg.Cert, "TLS certificate file (TRANSFORK_CERT)")
	cmd.Flags().StringVar(&cfg.Key, "key", cfg.Key, "TLS key file (TRANSFORK_KEY)")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "TCP address for fingerprint and metrics (TRANSFORK_HTTP_ADDR)")

	return cmd
}

func runServe(cfg *config) error {
	logger := cfg.logger()

	cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	events := newEventHub()
	defer events.Close()

	relay := newRelay(logger, events)

	server := &transfork.Server{
		Addr:      cfg.Addr,
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		Config: &transfork.Config{
			Logger:  logger,
			Metrics: transfork.NewMetrics(reg, ""),
		},
		CheckHTTPOrigin: func(*http.Request) bool { return true },
		Handler:         relay.handle,
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: newRouter(cert, reg, events),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down")
		server.Close()
		httpServer.Close()
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Addr, "http_addr", cfg.HTTPAddr)

	err = server.ListenAndServe()
	if errors.Is(err, transfork.ErrServerClosed) {
		return nil
	}
	return err
}

func newRouter(cert tls.Certificate, reg *prometheus.Registry, events *eventHub) http.Handler {
	r := chi.NewRouter()
	r.Get("/fingerprint", fingerprintHandler(cert).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/events", events.ServeHTTP)
	return r
}

// fingerprintHandler serves the hex SHA-256 of the leaf certificate.
func fingerprintHandler(cert tls.Certificate) http.Handler {
	var fingerprint string
	if len(cert.Certificate) > 0 {
		sum := sha256.Sum256(cert.Certificate[0])
		fingerprint = hex.EncodeToString(sum[:])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fingerprint == "" {
			http.Error(w, "no certificate", http.StatusNotFound)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(fingerprint))
	})
}

// relay forwards tracks between connections.
type relay struct {
	logger *slog.Logger
	events *eventHub

	mu     sync.Mutex
	conns  map[*transfork.Connection]struct{}
	tracks map[string]*transfork.Track
}

func newRelay(logger *slog.Logger, events *eventHub) *relay {
	return &relay{
		logger: logger,
		events: events,
		conns:  make(map[*transfork.Connection]struct{}),
		tracks: make(map[string]*transfork.Track),
	}
}

func (r *relay) handle(conn *transfork.Connection) {
	ctx := conn.Context()
	logger := r.logger.With("connection_id", conn.ID())

	r.mu.Lock()
	r.conns[conn] = struct{}{}
	for _, track := range r.tracks {
		r.publish(conn, track)
	}
	r.mu.Unlock()

	r.events.broadcast(event{Type: eventConnected, ConnectionID: conn.ID()})

	defer func() {
		r.mu.Lock()
		delete(r.conns, conn)
		r.mu.Unlock()

		r.events.broadcast(event{Type: eventDisconnected, ConnectionID: conn.ID()})
	}()

	announced, err := conn.Announced(ctx, nil)
	if err != nil {
		logger.Warn("failed to request announcements", "error", err)
		return
	}

	for {
		a, err := announced.Next(ctx)
		if err != nil {
			break
		}
		go r.forward(ctx, conn, a)
	}

	<-ctx.Done()
}

// forward subscribes to an announced track and publishes it to every other
// connection until the announcement or the subscription ends.
func (r *relay) forward(ctx context.Context, conn *transfork.Connection, a *transfork.Announced) {
	key := a.Path.String()
	logger := r.logger.With("connection_id", conn.ID(), "path", key)

	r.mu.Lock()
	if _, ok := r.tracks[key]; ok {
		r.mu.Unlock()
		logger.Warn("track is already relayed from another connection")
		return
	}
	track := transfork.NewTrack(a.Path, 0)
	r.tracks[key] = track
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.tracks, key)
		r.mu.Unlock()
		track.Close()
	}()

	reader, err := conn.Subscribe(ctx, track)
	if err != nil {
		logger.Warn("failed to subscribe", "error", err)
		return
	}
	defer reader.Close()

	r.mu.Lock()
	for other := range r.conns {
		if other != conn {
			r.publish(other, track)
		}
	}
	r.mu.Unlock()

	logger.Info("relaying track")
	r.events.broadcast(event{Type: eventAnnounced, ConnectionID: conn.ID(), Path: key})

	select {
	case <-a.Done():
	case <-track.Done():
	case <-ctx.Done():
	}

	logger.Info("stopped relaying track")
	r.events.broadcast(event{Type: eventWithdrawn, ConnectionID: conn.ID(), Path: key})
}

// publish must be called with r.mu held.
func (r *relay) publish(conn *transfork.Connection, track *transfork.Track) {
	reader := track.Reader()
	if err := conn.Publish(reader); err != nil {
		reader.Close()
		r.logger.Warn("failed to publish track",
			"connection_id", conn.ID(),
			"path", track.Path.String(),
			"error", err,
		)
	}
}
