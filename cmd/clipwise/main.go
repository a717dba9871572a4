// Command clipwise runs the transcript segmentation service: a trigger
// server that turns object-storage upload events into pipeline runs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/clipwise/auth"
	"github.com/skillsenselab/clipwise/config"
	"github.com/skillsenselab/clipwise/diarization"
	"github.com/skillsenselab/clipwise/diarization/pyannote"
	"github.com/skillsenselab/clipwise/llm"
	"github.com/skillsenselab/clipwise/llm/ollama"
	"github.com/skillsenselab/clipwise/llm/openai"
	"github.com/skillsenselab/clipwise/logger"
	"github.com/skillsenselab/clipwise/media"
	"github.com/skillsenselab/clipwise/observability"
	"github.com/skillsenselab/clipwise/pipeline"
	"github.com/skillsenselab/clipwise/segment"
	"github.com/skillsenselab/clipwise/server"
	"github.com/skillsenselab/clipwise/server/middleware"
	"github.com/skillsenselab/clipwise/sink"
	"github.com/skillsenselab/clipwise/storage"
	"github.com/skillsenselab/clipwise/transcription"
	"github.com/skillsenselab/clipwise/transcription/whisper"
	"github.com/skillsenselab/clipwise/version"

	// Storage backends register themselves on import.
	_ "github.com/skillsenselab/clipwise/storage/local"
	_ "github.com/skillsenselab/clipwise/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration failed", logger.ErrorFields("config", err))
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	log.Info("starting clipwise", map[string]interface{}{
		"build":       version.Get().String(),
		"environment": cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service exited with error", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics, shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	oracle, err := buildOracle(cfg)
	if err != nil {
		return err
	}
	transcriber, err := buildTranscriber(cfg)
	if err != nil {
		return err
	}
	diarizer, err := buildDiarizer(cfg)
	if err != nil {
		return err
	}

	segmenter := segment.NewSegmenter(oracle, cfg.Pipeline.Segmenter, log)
	if metrics != nil {
		segmenter.WithAttemptHook(metrics.RecordOracleAttempt)
	}

	orchestrator := pipeline.NewOrchestrator(
		cfg.Pipeline.Orchestrator,
		store,
		media.NewExtractor(""),
		transcriber,
		segment.NewPlanner(cfg.Pipeline.Planner, log),
		segmenter,
		segment.NewReconciler(cfg.Pipeline.Reconciler, log),
		sink.NewStorageSink(store),
		metrics,
		log,
	)
	if diarizer != nil {
		orchestrator.WithDiarizer(diarizer)
	}

	checks := []server.HealthCheck{
		{Name: "oracle", Check: oracle.IsAvailable},
		{Name: "transcriber", Check: transcriber.IsAvailable},
	}
	if diarizer != nil {
		checks = append(checks, server.HealthCheck{Name: "diarizer", Check: diarizer.IsAvailable})
	}

	var validator middleware.TokenValidator
	if cfg.Auth.Enabled {
		svc, err := auth.NewService(cfg.Auth.Config)
		if err != nil {
			return err
		}
		validator = func(token string) (any, error) { return svc.Validate(token) }
	} else {
		log.Warn("token auth disabled, trigger endpoint is unauthenticated")
	}

	srv := server.New(cfg.Server, log)
	srv.RegisterRoutes(orchestrator, checks, validator)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	log.Info("trigger server listening", map[string]interface{}{"addr": srv.Addr()})

	<-ctx.Done()
	log.Info("shutdown signal received, draining jobs")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// initTelemetry wires the OTLP exporters when telemetry is enabled. Metrics
// are nil when disabled; the pipeline records nothing in that case.
func initTelemetry(ctx context.Context, cfg *config.Config) (*observability.PipelineMetrics, func(), error) {
	if !cfg.Telemetry.Enabled {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Interval:       cfg.Telemetry.Interval,
	})
	if err != nil {
		return nil, nil, err
	}

	metrics, err := observability.NewPipelineMetrics(observability.Meter("pipeline"))
	if err != nil {
		return nil, nil, err
	}

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("meter shutdown failed", logger.ErrorFields("telemetry", err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", logger.ErrorFields("telemetry", err))
		}
	}
	return metrics, shutdown, nil
}

func buildOracle(cfg *config.Config) (llm.Provider, error) {
	reg := llm.NewRegistry()
	reg.RegisterFactory(ollama.ProviderName, ollama.Factory())
	reg.RegisterFactory(openai.ProviderName, openai.Factory())
	return reg.Create(cfg.Oracle.Provider, cfg.Oracle.Settings)
}

func buildTranscriber(cfg *config.Config) (transcription.Provider, error) {
	reg := transcription.NewRegistry()
	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
	return reg.Create(cfg.Transcriber.Provider, cfg.Transcriber.Settings)
}

// buildDiarizer returns nil when no diarization provider is configured.
func buildDiarizer(cfg *config.Config) (diarization.Provider, error) {
	if cfg.Diarizer.Provider == "" {
		return nil, nil
	}
	reg := diarization.NewRegistry()
	reg.RegisterFactory(pyannote.ProviderName, pyannote.Factory())
	return reg.Create(cfg.Diarizer.Provider, cfg.Diarizer.Settings)
}
