package main

import (
	"context"
	"flag"

	"github.com/abruzzotech/attesta/internal/attestazione"
	"github.com/abruzzotech/attesta/internal/audit"
	"github.com/abruzzotech/attesta/internal/canone"
	"github.com/abruzzotech/attesta/internal/catasto"
	"github.com/abruzzotech/attesta/internal/clock"
	"github.com/abruzzotech/attesta/internal/config"
	"github.com/abruzzotech/attesta/internal/metrics"
	"github.com/abruzzotech/attesta/internal/migration"
	"github.com/abruzzotech/attesta/internal/pipeline"
	"github.com/abruzzotech/attesta/internal/portal"
	"github.com/abruzzotech/attesta/internal/reconcile"
	"github.com/abruzzotech/attesta/internal/storage"
	"github.com/abruzzotech/attesta/internal/visura"
	"github.com/abruzzotech/attesta/pkg/db"
	"github.com/abruzzotech/attesta/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	var instructionsPath string
	flag.StringVar(&instructionsPath, "instructions", "istruzioni.csv", "path to the batch instructions CSV")
	flag.Parse()

	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		storage.Module,
		portal.Module,
		migration.Module,

		// Functional domains
		catasto.Module,
		visura.Module,
		reconcile.Module,
		canone.Module,
		audit.Module,
		attestazione.Module,
		pipeline.Module,

		fx.Invoke(func(lc fx.Lifecycle, svc *pipeline.Service, logger *zap.Logger, shutdowner fx.Shutdowner) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go runBatch(svc, logger, shutdowner, instructionsPath)
					return nil
				},
			})
		}),
	)
	app.Run()
}

func runBatch(svc *pipeline.Service, logger *zap.Logger, shutdowner fx.Shutdowner, path string) {
	instructions, err := pipeline.LoadInstructions(path)
	if err != nil {
		logger.Error("load instructions", zap.String("path", path), zap.Error(err))
		_ = shutdowner.Shutdown(fx.ExitCode(1))
		return
	}

	summary := svc.Run(context.Background(), instructions)

	code := 0
	if summary.Failed > 0 {
		code = 1
	}
	_ = shutdowner.Shutdown(fx.ExitCode(code))
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
