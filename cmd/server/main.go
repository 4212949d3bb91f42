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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/api"
	"github.com/greenroomhq/greenroom/internal/aptitude"
	"github.com/greenroomhq/greenroom/internal/config"
	"github.com/greenroomhq/greenroom/internal/demo"
	"github.com/greenroomhq/greenroom/internal/events"
	"github.com/greenroomhq/greenroom/internal/health"
	"github.com/greenroomhq/greenroom/internal/interview"
	"github.com/greenroomhq/greenroom/internal/logging"
	"github.com/greenroomhq/greenroom/internal/proctor"
	"github.com/greenroomhq/greenroom/internal/report"
	"github.com/greenroomhq/greenroom/internal/resume"
	"github.com/greenroomhq/greenroom/internal/session"
	"github.com/greenroomhq/greenroom/internal/storage"
	"github.com/greenroomhq/greenroom/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	demoMode := flag.Bool("demo", false, "Run scripted demo candidates; no database, broker, or object store needed")
	devMode := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	debug := flag.Bool("debug", false, "Debug log level")
	statsDir := flag.String("stats-dir", "", "Practice stats directory (default: XDG state path)")
	flag.Parse()

	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := buildLogger(*devMode, *debug)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewStore()
	broadcaster := ws.NewBroadcaster(logger, store, cfg.Server.BroadcastThrottle, cfg.Server.SnapshotInterval, 0)
	manager := proctor.NewManager(cfg.Proctor, logger)

	// Persistence, object storage, and the analysis queue are required
	// outside demo mode.
	var (
		db        *storage.Store
		objects   *resume.ObjectStore
		publisher *events.Publisher
	)
	if !*demoMode {
		sqlDB, err := storage.Connect(cfg.Database, logger)
		if err != nil {
			logger.Fatalw("database connection failed", "error", err)
		}
		db = storage.New(sqlDB)
		restoreSessions(ctx, db, store, logger)

		objects, err = resume.NewObjectStore(ctx, cfg.Storage)
		if err != nil {
			logger.Fatalw("object store init failed", "error", err)
		}

		publisher, err = events.NewPublisher(cfg.AMQP, logger)
		if err != nil {
			logger.Fatalw("broker connection failed", "error", err)
		}
	}

	tracker, err := report.NewTracker(report.NewStatsStore(*statsDir), logger)
	if err != nil {
		logger.Fatalw("stats tracker init failed", "error", err)
	}
	trackerDone := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(trackerDone)
	}()

	probe := health.NewProbe(logger)
	go probe.Run(ctx, time.Minute)

	questions, err := interview.LoadBank(cfg.Interview.BankPath)
	if err != nil {
		logger.Fatalw("interview bank load failed", "error", err)
	}
	aptBank, err := aptitude.LoadBank(cfg.Aptitude.BankPath)
	if err != nil {
		logger.Fatalw("aptitude bank load failed", "error", err)
	}

	// Violations fan out to the stats tracker and the database. Called
	// from controller goroutines, so sends drop rather than block and the
	// insert runs off to the side.
	violationSink := func(sessionID string, v proctor.Violation) {
		select {
		case tracker.Violations() <- report.ViolationNote{SessionID: sessionID, Kind: v.Kind}:
		default:
		}
		if db != nil {
			go func() {
				insertCtx, cancelInsert := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelInsert()
				if err := db.Violations.Insert(insertCtx, sessionID, v); err != nil {
					logger.Warnw("violation insert failed", "session", sessionID, "error", err)
				}
			}()
		}
	}

	wsServer := ws.NewServer(cfg, store, broadcaster, manager, logger)
	wsServer.SetViolationSink(violationSink)

	restAPI := api.New(api.Deps{
		Config:      cfg,
		Store:       store,
		DB:          db,
		Objects:     objects,
		Broadcaster: broadcaster,
		Publisher:   publisher,
		Probe:       probe,
		Tracker:     tracker,
		Questions:   questions,
		Aptitude:    aptBank,
		Log:         logger,
	})

	mux := http.NewServeMux()
	wsServer.SetupRoutes(mux)
	mux.Handle("/api/", restAPI.Handler())

	if *demoMode {
		gen := demo.NewGenerator(store, broadcaster, manager, logger)
		gen.SetSinks(demo.Sinks{
			Violation: violationSink,
			Event: func(ev session.Event) {
				select {
				case tracker.Events() <- ev:
				default:
				}
			},
		})
		gen.Start(ctx)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: ws.SecurityHeaders(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server listening", "addr", addr, "demo", *demoMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infow("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Errorw("server failed", "error", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown incomplete", "error", err)
	}

	manager.StopAll()
	broadcaster.Stop()
	if publisher != nil {
		publisher.Close()
	}

	// Stop the tracker last and wait for its final stats save.
	cancel()
	<-trackerDone

	if db != nil {
		if err := db.Close(); err != nil {
			logger.Warnw("database close failed", "error", err)
		}
	}
	logger.Infow("server stopped")
}

func buildLogger(dev, debug bool) (*zap.SugaredLogger, error) {
	if dev {
		return logging.NewDevelopment("server")
	}
	return logging.New("server", debug)
}

const restoreLimit = 200

// restoreSessions reloads recent non-terminal sessions so a restart does not
// empty the room. Rows seed the store without events: the stats tracker
// counted these sessions when they were first created.
func restoreSessions(ctx context.Context, db *storage.Store, store *session.Store, logger *zap.SugaredLogger) {
	rows, err := db.Sessions.List(ctx, restoreLimit)
	if err != nil {
		logger.Warnw("session restore failed", "error", err)
		return
	}
	restored := 0
	for _, row := range rows {
		st := row.State()
		if st.IsTerminal() {
			continue
		}
		store.Update(st)
		restored++
	}
	if restored > 0 {
		logger.Infow("sessions restored", "count", restored)
	}
}
