package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talkincode/toughcatalog/config"
	"github.com/talkincode/toughcatalog/internal/adminapi"
	"github.com/talkincode/toughcatalog/internal/app"
	"github.com/talkincode/toughcatalog/internal/webserver"
)

var (
	version    = "develop"
	configFile = flag.String("c", "", "config yaml file")
	migrateDB  = flag.Bool("migrate", false, "run database migrations with sql trace and exit")
	showVer    = flag.Bool("v", false, "print version and exit")
)

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version)
		return
	}

	cfg := config.MustLoad(*configFile)

	application := app.NewApplication(cfg)

	if *migrateDB {
		application.InitDB(cfg)
		err := application.MigrateDB(true)
		if err != nil {
			zap.L().Error("database migration failed", zap.Error(err))
		}
		application.Release()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	application.Init(cfg)
	defer application.Release()

	server := webserver.Init(cfg, application)
	adminapi.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down admin api server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("toughcatalog exited with error", zap.Error(err))
		stop()
		application.Release()
		os.Exit(1)
	}
}
