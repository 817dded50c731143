// Command avamem runs the Ava memory back end: the memory client behind an
// HTTP API for the web front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ava-assistant/avamem-go/pkg/core"
	"github.com/ava-assistant/avamem-go/pkg/logger"
	"github.com/ava-assistant/avamem-go/pkg/server"
	"github.com/ava-assistant/avamem-go/pkg/tts/elevenlabs"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a .yaml, .json or .env config file (default: environment)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "avamem:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Configuration
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logging
	closer, err := logger.Init(config.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	appLogger := logger.New("avamem")
	appLogger.WithField("config", configPath).Info("Starting Ava memory back end")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Memory client; missing provider keys degrade instead of failing
	client, err := core.NewClient(ctx, config, core.WithLogger(appLogger.Entry()))
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			appLogger.WithError(err).Warn("Failed to close client")
		}
	}()

	// 4. Speech
	speech, err := elevenlabs.NewClient(&elevenlabs.Config{
		APIKey:  config.TTS.APIKey,
		VoiceID: config.TTS.VoiceID,
		ModelID: config.TTS.ModelID,
		BaseURL: config.TTS.BaseURL,
	}, appLogger.Component("tts"))
	if err != nil {
		return fmt.Errorf("create speech client: %w", err)
	}

	// 5. HTTP server
	gin.SetMode(gin.ReleaseMode)
	srv := server.New(client, speech, config.Server, appLogger.Component("http"))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	appLogger.Info("Ava memory back end stopped")
	return nil
}
