package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/deanbaranes/bpark-server/internal/config"
	"github.com/deanbaranes/bpark-server/internal/database"
	"github.com/deanbaranes/bpark-server/internal/dispatch"
	"github.com/deanbaranes/bpark-server/internal/engine"
	"github.com/deanbaranes/bpark-server/internal/gateway"
	"github.com/deanbaranes/bpark-server/internal/handler"
	"github.com/deanbaranes/bpark-server/internal/notify"
	"github.com/deanbaranes/bpark-server/internal/pool"
	"github.com/deanbaranes/bpark-server/internal/report"
	"github.com/deanbaranes/bpark-server/internal/repository"
	"github.com/deanbaranes/bpark-server/internal/router"
	"github.com/deanbaranes/bpark-server/internal/sched"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment proper.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.Pool.Max)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// The bounded pool hands out pinned sessions; the *sql.DB handle
	// only serves as its connection factory.
	p := pool.New(db.Conn, cfg.Pool.Max, cfg.Pool.AcquireTimeout)
	defer p.Close()
	gw := gateway.New(p)

	subscribers := repository.NewSubscriberRepo(gw)
	reservations := repository.NewReservationRepo(gw)
	actives := repository.NewActiveParkingRepo(gw)
	history := repository.NewHistoryRepo(gw)
	accounts := repository.NewAccountRepo(gw)
	reports := repository.NewMonthlyReportRepo(gw)

	publisher := notify.NewPublisher("")
	go func() {
		if err := notify.StartConsumer(); err != nil {
			log.Printf("notification consumer disabled: %v", err)
		}
	}()

	eng := engine.New(cfg.Policy, subscribers, reservations, actives, history, publisher)
	agg := report.New(history, cfg.Policy.ExtensionDuration)

	disp := dispatch.New(dispatch.Deps{
		Engine:       eng,
		Subscribers:  subscribers,
		Accounts:     accounts,
		Reservations: reservations,
		Sessions:     actives,
		History:      history,
		Reports:      agg,
		Snapshots:    reports,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := sched.New(eng, agg, reports, cfg.Policy.SweepInterval, cfg.Policy.ReportHour)
	scheduler.Start(ctx)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e,
		handler.NewAuthHandler(disp, cfg.JWTSecret, cfg.TokenTTL),
		handler.NewParkingHandler(disp),
		handler.NewStaffHandler(disp),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
