package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uniterm/timetabler/internal/scheduler"
	"github.com/uniterm/timetabler/internal/solver"
	"github.com/uniterm/timetabler/pkg/config"
	appErrors "github.com/uniterm/timetabler/pkg/errors"
	"github.com/uniterm/timetabler/pkg/logger"
	"github.com/uniterm/timetabler/pkg/storage"
)

func main() {
	executionArn := flag.String("executionArn", "", "state machine execution ARN; input and artefacts go through the object store")
	workDir := flag.String("workDir", "", "local working directory holding input.json; artefacts are written next to it")
	timeoutMinutes := flag.Int("timeout", 0, "wall-clock budget in minutes, overriding the configured profiles")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	code := run(cfg, logr, *executionArn, *workDir, *timeoutMinutes)
	_ = logr.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logr *zap.Logger, executionArn, workDir string, timeoutMinutes int) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg, logr, executionArn, workDir)
	if err != nil {
		logr.Error("failed to initialise store", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return appErrors.FromError(err).ExitCode
	}

	driver := solver.NewDriver(cfg.Solver.ClingoPath, logr)
	service := scheduler.New(store, driver, cfg.Solver, validator.New(), logr)

	override := time.Duration(timeoutMinutes) * time.Minute
	output, status, err := service.Run(ctx, override)
	if err != nil {
		typed := appErrors.FromError(err)
		logr.Error("execution failed",
			zap.String("code", typed.Code),
			zap.String("status", string(status)),
			zap.Error(err))
		fmt.Fprintln(os.Stderr, typed.Error())
		return typed.ExitCode
	}

	logr.Info("execution finished",
		zap.String("status", string(status)),
		zap.Int("units", len(output.Timetable)))
	return 0
}

func buildStore(ctx context.Context, cfg *config.Config, logr *zap.Logger, executionArn, workDir string) (storage.Store, error) {
	switch {
	case executionArn != "" && workDir != "":
		return nil, appErrors.New(appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode,
			"--executionArn and --workDir are mutually exclusive")
	case executionArn != "":
		executionID := storage.ExecutionIDFromArn(executionArn)
		logr.Info("using object store", zap.String("executionId", executionID))
		return storage.NewS3Store(ctx, cfg.Storage.Bucket, executionID, logr)
	case workDir != "":
		logr.Info("using local store", zap.String("workDir", workDir))
		return storage.NewLocalStore(workDir)
	default:
		return nil, appErrors.New(appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.ExitCode,
			"one of --executionArn or --workDir is required")
	}
}
