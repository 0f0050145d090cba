package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/blobstore"
	"github.com/asiaspanel/voicegate/internal/clone"
	"github.com/asiaspanel/voicegate/internal/config"
	"github.com/asiaspanel/voicegate/internal/delivery"
	"github.com/asiaspanel/voicegate/internal/logging"
	"github.com/asiaspanel/voicegate/internal/orchestrator"
	"github.com/asiaspanel/voicegate/internal/provider/elevenlabs"
	"github.com/asiaspanel/voicegate/internal/provider/espeak"
	"github.com/asiaspanel/voicegate/internal/provider/openai"
	"github.com/asiaspanel/voicegate/internal/registry"
	"github.com/asiaspanel/voicegate/internal/resilience"
	"github.com/asiaspanel/voicegate/internal/server"
	"github.com/asiaspanel/voicegate/internal/session"
)

const version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "voicegate",
		Short:        "Translation and TTS gateway with provider fallback",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, configPath string) error {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	printBanner()

	store, err := assets.NewStore(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	reg := registry.New(cfg.StorageDir + "/config.json")

	var remote delivery.RemoteStore
	if cfg.Blob.NATSURL != "" {
		blob, conn, err := blobstore.Connect(cfg.Blob.NATSURL, cfg.Blob.Bucket)
		if err != nil {
			// Blob delivery is an upgrade, not a dependency. Local
			// serving covers its absence.
			log.Warn("blob backend unavailable, serving audio locally", "error", err)
		} else {
			defer conn.Close()
			remote = blob
			log.Info("blob backend connected", "bucket", cfg.Blob.Bucket)
		}
	}
	resolver := delivery.NewResolver(remote, store, cfg.PublicBaseURL, cfg.Blob.Timeout, log)

	eleven := elevenlabs.New(elevenlabs.Config{
		APIKey:  cfg.ElevenLabs.APIKey,
		ModelID: cfg.ElevenLabs.ModelID,
		Timeout: cfg.ElevenLabs.Timeout,
		VoiceSettings: elevenlabs.VoiceSettings{
			Stability:    cfg.ElevenLabs.Stability,
			Similarity:   cfg.ElevenLabs.Similarity,
			Style:        cfg.ElevenLabs.Style,
			SpeakerBoost: cfg.ElevenLabs.SpeakerBoost,
		},
	})
	oai := openai.New(openai.Config{
		APIKey:   cfg.OpenAI.APIKey,
		Model:    cfg.OpenAI.Model,
		TTSModel: cfg.OpenAI.TTSModel,
		TTSVoice: cfg.OpenAI.TTSVoice,
		Timeout:  cfg.OpenAI.Timeout,
	})
	offline := espeak.New(espeak.Config{
		Binary:   cfg.Espeak.Binary,
		Language: cfg.Espeak.Language,
		Timeout:  cfg.Espeak.Timeout,
	})

	orch := orchestrator.New(reg, store, resolver,
		eleven, oai, offline,
		resilience.NewBreaker("elevenlabs", cfg.Breaker.Threshold, cfg.Breaker.Cooldown),
		resilience.NewBreaker("openai", cfg.Breaker.Threshold, cfg.Breaker.Cooldown),
		logging.ForComponent(log, "orchestrator"))

	clones := clone.NewService(eleven, reg, store, logging.ForComponent(log, "clone"))

	srv := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
	}, orch, oai, resolver, reg, clones, session.NewStore(), store, logging.ForComponent(log, "http"))

	log.Info("voicegate starting", "addr", cfg.ListenAddr, "storage", cfg.StorageDir, "version", version)
	start := time.Now()
	err = srv.Start(ctx)
	log.Info("voicegate stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}

func printBanner() {
	tpl := "{{ .Title \"VOICEGATE\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
