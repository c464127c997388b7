package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	ltengine "github.com/voxbridge/lt-engine"
	"github.com/voxbridge/lt-engine/internal/api"
	"github.com/voxbridge/lt-engine/internal/config"
	"github.com/voxbridge/lt-engine/internal/database"
	"github.com/voxbridge/lt-engine/internal/ingest"
	"github.com/voxbridge/lt-engine/internal/inject"
	"github.com/voxbridge/lt-engine/internal/mqttclient"
	"github.com/voxbridge/lt-engine/internal/storage"
	"github.com/voxbridge/lt-engine/internal/synth"
	"github.com/voxbridge/lt-engine/internal/translate"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "http-addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "postgres connection string")
	flag.StringVar(&overrides.MQTTBrokerURL, "mqtt-broker", "", "mqtt broker url")
	flag.StringVar(&overrides.VoiceMapPath, "voice-map", "", "path to the language-to-voice map")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("lt-engine starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(ctx, cfg.DatabaseURL, log.With().Str("component", "database").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx, ltengine.SchemaSQL); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Translation provider
	translator := translate.NewOpenAIClient(
		cfg.TranslateAPIURL, cfg.TranslateAPIKey, cfg.TranslateModel,
		cfg.TranslateMaxTokens, cfg.TranslateTimeout,
	)

	// Voice-to-voice stack, enabled only with full credentials
	var (
		synthesizer translate.Synthesizer
		injector    translate.Injector
		queue       *inject.Queue
		voices      *synth.VoiceMap
	)
	if cfg.VoiceToVoiceEnabled() {
		store, err := storage.NewS3Store(storage.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.AudioPublicBaseURL,
		}, log.With().Str("component", "storage").Logger())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create audio store")
		}
		if err := store.HeadBucket(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("audio bucket probe failed")
		}

		voices, err = synth.LoadVoiceMap(cfg.VoiceMapPath, log.With().Str("component", "voices").Logger())
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.VoiceMapPath).Msg("failed to load voice map")
		}
		if err := voices.Watch(); err != nil {
			log.Warn().Err(err).Msg("voice map hot reload unavailable")
		}
		defer voices.Close()

		tts := synth.NewElevenLabsClient(cfg.TTSAPIKey, cfg.TTSModel, cfg.TTSTimeout)
		synthesizer = synth.NewService(tts, store, voices, log.With().Str("component", "synth").Logger())

		playback := inject.NewTelnyxClient(cfg.CallControlAPIURL, cfg.CallControlAPIKey, cfg.InjectTimeout)
		queue = inject.NewQueue(inject.QueueOptions{
			Store:    db,
			Provider: playback,
			Timeout:  cfg.InjectTimeout,
			Log:      log,
		})
		defer queue.Stop()
		injector = queue

		reaper := inject.NewReaper(db, 30*time.Second, cfg.InjectionReapAfter, log)
		reaper.Start(ctx)

		log.Info().Int("voices", voices.Len()).Msg("voice-to-voice enabled")
	} else {
		log.Info().Msg("voice-to-voice disabled, running text-only")
	}

	// MQTT
	mqtt, err := mqttclient.Connect(mqttclient.Options{
		BrokerURL: cfg.MQTTBrokerURL,
		ClientID:  cfg.MQTTClientID,
		Topics:    cfg.MQTTTopics,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		Log:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
	}
	defer mqtt.Close()

	// Segment workers and ingest pipeline. The processor publishes results
	// through the pipeline's event bus, which doesn't exist yet when the
	// processor is built; the closure defers that lookup.
	var pipeline *ingest.Pipeline
	processor := translate.NewProcessor(translate.ProcessorOptions{
		Store:       db,
		Calls:       db,
		Translator:  translator,
		Synthesizer: synthesizer,
		Injector:    injector,
		PublishEvent: func(eventType, orgID, callID string, payload map[string]any) {
			pipeline.PublishResult(eventType, orgID, callID, payload)
		},
		Log: log.With().Str("component", "translate").Logger(),
	})

	pool := translate.NewWorkerPool(translate.WorkerPoolOptions{
		Processor: processor,
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Log:       log.With().Str("component", "workers").Logger(),
	})

	var lanes ingest.LaneCloser
	if queue != nil {
		lanes = queue
	}
	pipeline = ingest.NewPipeline(ingest.PipelineOptions{
		Calls:   db,
		Queue:   pool,
		Lanes:   lanes,
		Results: mqtt,
		Log:     log,
	})

	pool.Start()
	pipeline.Start()

	mqtt.SetMessageHandler(pipeline.HandleMessage)

	// HTTP server
	srv := api.NewServer(cfg, db, mqtt, pipeline, version, startTime, log.With().Str("component", "http").Logger())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Drain in dependency order: stop intake, finish queued segments, then
	// close the external-facing pieces via the deferred cleanups.
	mqtt.SetMessageHandler(func(string, []byte) {})
	pipeline.Stop()
	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("lt-engine stopped")
}
