package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"twelve-week-year/internal/bot"
	"twelve-week-year/internal/config"
	"twelve-week-year/internal/recurrence"
	"twelve-week-year/internal/repository"
	"twelve-week-year/internal/service"
)

const jobTimeout = 30 * time.Second

func main() {
	envFile := flag.String("env", ".env", "path to an optional env file")
	once := flag.Bool("once", false, "run the recurrence reset and recalculation, then exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)
	metrics := service.NewMetrics(prometheus.DefaultRegisterer)
	locks := service.NewTaskLocks()

	progressSvc := service.NewProgressService(store, locks, metrics)
	visionSvc := service.NewVisionService(store.Visions)
	services := bot.Services{
		Tasks:      service.NewTaskService(store, locks, metrics, cfg.Location),
		Plans:      service.NewPlanService(store, progressSvc),
		Progress:   progressSvc,
		Vision:     visionSvc,
		Categories: service.NewCategoryService(store),
		Reports:    service.NewReportService(progressSvc, visionSvc),
	}
	resetSvc := service.NewResetService(store, locks, metrics, recurrence.Policy{IncludeWeekSpecific: cfg.ResetWeekSpecific})

	// Catch up on resets missed while the process was down.
	if _, err := resetSvc.Run(ctx, time.Now().In(cfg.Location)); err != nil {
		log.Printf("[error] startup reset: %v", err)
	}
	if *once {
		log.Println("[info] one-shot reset finished")
		return
	}

	if err := cfg.RequireBot(); err != nil {
		log.Fatalf("config: %v", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	resetJob := scheduler.Job("reset", jobTimeout, func(ctx context.Context, now time.Time) error {
		_, err := resetSvc.Run(ctx, now)
		return err
	})
	id, err := scheduler.ScheduleDaily(cfg.ResetTime, resetJob)
	if err != nil {
		log.Fatalf("schedule reset: %v", err)
	}
	if cfg.RecalcInterval > 0 {
		recalcJob := scheduler.Job("recalculate", jobTimeout, func(ctx context.Context, now time.Time) error {
			_, err := progressSvc.RecalculateAll(ctx, now)
			return err
		})
		if _, err := scheduler.ScheduleInterval(cfg.RecalcInterval, recalcJob); err != nil {
			log.Fatalf("schedule recalculation: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[info] next reset at %s", scheduler.Next(id).Format(time.RFC3339))

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("[info] metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[error] metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	telegramBot, err := bot.New(cfg, services)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	log.Println("12 week year bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
