package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"jet_charter/internal/api"
	"jet_charter/internal/booking"
	"jet_charter/internal/charter"
	"jet_charter/internal/config"
	"jet_charter/internal/database"
	"jet_charter/internal/models"
	"jet_charter/internal/scheduler"
	"jet_charter/internal/tasks"
)

const (
	seedBatchSize     = 500
	trackingQueueSize = 1000
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Daemon owns the database, the HTTP server and the background tasks
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB
	collector *tasks.TrackingCollector
	server    *http.Server
	listener  net.Listener
	wg        sync.WaitGroup
}

// New opens the database, seeds empty tables and wires the services
func New(cfg *config.Config) (*Daemon, error) {
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := seed(db, cfg.Seed); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	pricer := charter.NewPricer(cfg.Pricing.DefaultCommissionRate)
	searcher := charter.NewSearcher(db, pricer, charter.SearchConfig{
		PrimaryThreshold: cfg.Search.PrimaryThreshold,
		SecondaryCap:     cfg.Search.SecondaryCap,
	})
	bookings := booking.NewService(db, db.Aircraft(), db.Bookings(), pricer)

	points := make(chan *models.TrackingPoint, trackingQueueSize)
	collector := tasks.NewTrackingCollectorWithConfig(db.Tracking(), points, cfg.Tracking.BatchSize, cfg.Tracking.FlushInterval())

	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewLocationSync(db.Tracking(), db.Airports(), db.Aircraft(), cfg.Tracking.SyncEvery(), cfg.Tracking.SnapRadiusNM))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewServer(searcher, db.Airports(), bookings, points).Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		database:  db,
		collector: collector,
		server:    server,
	}, nil
}

// seed loads the bundled airport and fleet CSVs into empty tables
func seed(db *database.DB, cfg config.SeedConfig) error {
	populated, err := db.Airports().IsTablePopulated()
	if err != nil {
		return fmt.Errorf("failed to check airports table: %w", err)
	}
	if !populated && cfg.AirportsCSV != "" {
		slog.Info("Airports table is empty, loading from CSV", "csv_path", cfg.AirportsCSV)
		if err := db.Airports().LoadFromCSV(cfg.AirportsCSV, seedBatchSize); err != nil {
			return fmt.Errorf("failed to load airports: %w", err)
		}
	}

	populated, err = db.Aircraft().IsTablePopulated()
	if err != nil {
		return fmt.Errorf("failed to check aircraft table: %w", err)
	}
	if !populated && cfg.FleetCSV != "" {
		slog.Info("Aircraft table is empty, loading fleet from CSV", "csv_path", cfg.FleetCSV)
		if err := db.Aircraft().LoadFleetFromCSV(cfg.FleetCSV, seedBatchSize); err != nil {
			return fmt.Errorf("failed to load fleet: %w", err)
		}
	}
	return nil
}

// Addr returns the address the HTTP server is bound to. It is empty before
// Start.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	ln, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.server.Addr, err)
	}
	d.listener = ln

	d.scheduler.Start()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.collector.Start(d.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Tracking collector stopped", "error", err)
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
		}
	}()

	slog.Info("Daemon started successfully", "listen_addr", d.Addr())
	return nil
}

// Stop drains HTTP requests, flushes pending tracking points and closes the
// database
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
	}

	d.cancel()
	d.scheduler.Stop()
	d.wg.Wait()

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
		return err
	}

	slog.Info("Daemon stopped")
	return nil
}
