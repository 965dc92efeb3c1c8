package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/internal"
	"github.com/arfis/waiting-room-sub002/logs"
	"github.com/arfis/waiting-room-sub002/observability"
	"github.com/arfis/waiting-room-sub002/projection"
	"github.com/arfis/waiting-room-sub002/ranking"
	"github.com/arfis/waiting-room-sub002/repositories"
	"github.com/arfis/waiting-room-sub002/rest"
	"github.com/arfis/waiting-room-sub002/runtime"
	"github.com/arfis/waiting-room-sub002/runtime/workers"
	"github.com/arfis/waiting-room-sub002/services"
	"github.com/arfis/waiting-room-sub002/store"
	"github.com/arfis/waiting-room-sub002/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Room & priority configuration
	provider, err := repositories.NewFileConfigRepository(log, config.RoomsConfigPath)
	if err != nil {
		return err
	}

	// 3. Stores & engine
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := store.New()
	if err := ensureRooms(ctx, s, provider); err != nil {
		return err
	}
	engine := ranking.New(s)

	// 4. Runtime: hub, coordinator, workers
	hub := runtime.NewHub(log, runtime.NewRegistry(), engine, s, provider, config.SinkTimeout)
	coordinator := runtime.NewCoordinator(log, s, engine, provider, hub)
	service := services.NewQueueService(coordinator, hub, provider)

	monitor := observability.NewMonitor(log, s, provider, config.MetricInterval)
	hub.SetEvictionCounter(monitor)
	coordinator.SetAdmissionCounter(monitor)

	noShow := workers.NewNoShowWorker(log, s, provider, coordinator,
		config.NoShowTimeout, config.NoShowSweepInterval)
	sup := workers.NewSupervisor(log)
	sup.Add(hub, noShow, monitor)
	go sup.Run(ctx)

	// Wait statistics are derived from the same snapshot stream the displays
	// receive.
	stats := projection.NewWaitStats()
	if err := subscribeStats(ctx, hub, provider, stats); err != nil {
		return err
	}

	// SIGHUP refreshes the room configuration without a restart.
	go reloadOnSighup(ctx, log, s, provider)

	// 5. HTTP server: REST API plus the websocket stream
	controller := rest.NewQueueController(log, service)
	controller.SetStats(stats)
	server := rest.NewServer(controller)
	ws.NewHandler(log, service, config.ConnectionBufferSize).Register(server)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.Start(address); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// ensureRooms creates a store arena for every configured room. Rooms removed
// from the file keep their arena until restart; entries are never dropped
// while the process runs.
func ensureRooms(ctx context.Context, s *store.Store, provider *repositories.FileConfigRepository) error {
	rooms, err := provider.Rooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		s.EnsureRoom(room.ID)
	}
	return nil
}

// subscribeStats attaches the wait projection to every configured room's
// operational stream.
func subscribeStats(ctx context.Context, hub *runtime.Hub,
	provider *repositories.FileConfigRepository, stats *projection.WaitStats) error {
	rooms, err := provider.Rooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if _, err := hub.Subscribe(ctx, room.ID, domain.OperationalFilter, stats); err != nil {
			return fmt.Errorf("stats subscription for room %q: %w", room.ID, err)
		}
	}
	return nil
}

func reloadOnSighup(ctx context.Context, log *slog.Logger,
	s *store.Store, provider *repositories.FileConfigRepository) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := provider.Reload(); err != nil {
				log.Warn("Configuration reload failed, keeping previous", "error", err)
				continue
			}
			if err := ensureRooms(ctx, s, provider); err != nil {
				log.Warn("Room provisioning after reload failed", "error", err)
			}
		}
	}
}
