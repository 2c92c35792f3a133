package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cafe-order/api"
	"cafe-order/logger"
	"cafe-order/metrics"
	"cafe-order/notify"
	"cafe-order/realtime"
	"cafe-order/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the real-time channel",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, _ := cfg.Cafe.Location()
	m := metrics.New()

	auth := services.NewAuthService(st, cfg.Auth.JWTSecret, services.AuthOptions{
		TokenTTL: cfg.Auth.TokenTTL,
		Log:      logger.WithComponent(log, "auth"),
		Metrics:  m,
	})
	hub := realtime.NewHub(realtime.Options{
		Auth:           auth.Authenticate,
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		Log:            logger.WithComponent(log, "realtime"),
		Metrics:        m,
	})
	defer hub.Close()

	notifyLog := logger.WithComponent(log, "notify")
	hubEvents := services.NewDispatcher(hub, cfg.Notify.QueueSize, cfg.Notify.Timeout, notifyLog, m)
	defer hubEvents.Close()
	events := services.Publishers{hubEvents}
	if cfg.Telegram.Token != "" {
		tg, err := notify.Dial(cfg.Telegram.Token, cfg.Notify.Timeout, cfg.Telegram.AdminChatIDs, cfg.Cafe.FrontendURL+"/admin", logger.WithComponent(log, "telegram"))
		if err != nil {
			log.Error("telegram disabled", "error", err)
		} else {
			tgEvents := services.NewDispatcher(tg, cfg.Notify.QueueSize, cfg.Notify.Timeout, notifyLog, m)
			defer tgEvents.Close()
			events = append(events, tgEvents)
		}
	}

	menu := services.NewMenuService(st, logger.WithComponent(log, "menu"))
	orders := services.NewOrderService(st, events, services.OrderOptions{
		StrictTransitions: cfg.Cafe.StrictTransitions,
		Location:          loc,
		Log:               logger.WithComponent(log, "orders"),
		Metrics:           m,
	})

	if err := services.EnsureDefaultAdmin(ctx, auth, st, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, log); err != nil {
		log.Error("seed admin failed", "error", err)
	}
	if err := services.SeedMenu(ctx, menu, st, log); err != nil {
		log.Error("seed menu failed", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(api.Deps{
		Auth:        auth,
		Menu:        menu,
		Orders:      orders,
		Store:       st,
		Realtime:    hub,
		Metrics:     m,
		Log:         logger.WithComponent(log, "http"),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		FrontendURL: cfg.Cafe.FrontendURL,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver, "strict_transitions", cfg.Cafe.StrictTransitions)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
