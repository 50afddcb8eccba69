package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/sebesti0n/Mr.-DCC-Bot/internal/bootstrap"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/platform/discord"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/service"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/session"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/throttle"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/transport/bot"
	grpcx "github.com/sebesti0n/Mr.-DCC-Bot/internal/transport/grpc"
	httpx "github.com/sebesti0n/Mr.-DCC-Bot/internal/transport/http"
	"github.com/sebesti0n/Mr.-DCC-Bot/internal/transport/ws"
	"github.com/sebesti0n/Mr.-DCC-Bot/pkg/logger"
)

func runServe(parent context.Context, cfgPath string) error {
	cfg := setup(cfgPath)
	defer logger.Sync()

	if err := cfg.ValidateDiscord(); err != nil {
		return err
	}
	slog.Info("starting mr-dcc-bot",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- tracing ---
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(sctx)
	}()

	// --- storage ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if cfg.Roster.Preload {
		if _, err := os.Stat(cfg.Roster.Path); err == nil {
			if _, err := bootstrap.NewLoader(store).LoadFile(ctx, cfg.Roster.Path); err != nil {
				return fmt.Errorf("preload roster: %w", err)
			}
		} else {
			slog.Warn("roster not found, preload skipped", "path", cfg.Roster.Path)
		}
	}

	// --- discord ---
	dc, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID)
	if err != nil {
		return err
	}

	// --- services ---
	hub := ws.NewHub()
	guard := session.NewGuard()
	audit := service.NewAudit(dc, cfg.Discord.Channels.Log, hub)
	access := service.NewAccessManager(dc, audit, service.AccessConfig{
		GroupRoleTemplate: cfg.Discord.Roles.GroupTemplate,
		CategoryTemplate:  cfg.Discord.Roles.CategoryTemplate,
		MenteeRole:        cfg.Discord.Roles.Mentee,
		RoleColor:         cfg.Discord.Roles.Color,
	})

	registration := service.NewRegistrationService(store, dc, access, audit)
	registration.SetTracker(guard)
	registration.SetDialogTimeout(cfg.Dialog.Timeout)

	admin := service.NewAdminService(store, dc, access, audit, throttle.NewDispatcher(cfg.Assign.Interval))
	admin.SetTracker(guard)
	admin.SetDialogTimeout(cfg.Dialog.Timeout)

	members := service.NewMemberDirectory(dc)
	stats := service.NewStatsService(store, guard)

	router := bot.NewRouter(dc, guard, registration, admin, members, bot.Config{
		WelcomeChannel:     cfg.Discord.Channels.Welcome,
		AdminChannel:       cfg.Discord.Channels.Admin,
		MemberListCategory: cfg.Discord.MemberListCategory,
	})
	dc.Handle(router.Handle)

	// --- HTTP ---
	wsServer := ws.NewServer(hub)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(httpx.NewHandler(stats), wsServer.HandleWS),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// --- gRPC ---
	var grpcSrv *grpcx.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpcx.NewServer()
	}

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dc.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				return fmt.Errorf("grpc listen: %w", err)
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcSrv.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			grpcSrv.Watch(gctx, stats, 15*time.Second)
			return nil
		})
	}

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GRPC.GracefulStop()
		}
		return httpSrv.Shutdown(sctx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("stopped")
	return nil
}
