package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JankoV12/dis-track/internal/config"
	"github.com/JankoV12/dis-track/internal/extractor"
	"github.com/JankoV12/dis-track/internal/handler"
	"github.com/JankoV12/dis-track/internal/httpapi"
	"github.com/JankoV12/dis-track/internal/metacache"
	"github.com/JankoV12/dis-track/internal/player"
	"github.com/JankoV12/dis-track/internal/presenters"
	"github.com/JankoV12/dis-track/internal/resolver"
	"github.com/JankoV12/dis-track/internal/track"
	"github.com/JankoV12/dis-track/internal/voice"
)

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	playerConfig, err := config.NewPlayerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load player config: %w", err)
	}
	spotifyConfig, err := config.NewSpotifyConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load spotify config: %w", err)
	}
	apiConfig, err := config.NewAPIConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load api config: %w", err)
	}

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready: handler.ReadyLog,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	source := resolver.New(
		extractor.NewYouTube(),
		extractor.NewSpotify(context.Background(), spotifyConfig.ClientID, spotifyConfig.ClientSecret, spotifyConfig.RequestsPerSecond),
		extractor.NewSearch(),
	)

	cache := metacache.New(playerConfig.MetadataCacheSize)
	orchestrator := player.New(source, voice.NewTransport(session), cache, player.Config{
		InactivityTimeout: playerConfig.InactivityTimeout,
		AttachTimeout:     playerConfig.AttachTimeout,
		FailureThreshold:  playerConfig.FailureThreshold,
	})

	notifier := handler.NewStatusNotifier(session)
	orchestrator.SetListener(notifier)

	formatQueue := func(entries []track.QueueEntry) string {
		return presenters.FormatQueue(entries, cache)
	}
	session.AddHandler(handler.MakeInteractionCreateHandler(orchestrator, formatQueue, notifier))
	session.AddHandler(handler.MakeVoiceStateUpdateHandler(orchestrator))

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	// An empty guild ID registers the commands globally; the config layer
	// only allows that when DISCORD_RUN_BOT_GLOBALLY is set.
	if err := handler.EstablishCommands(session, discordConfig.GuildID); err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}

	api := &http.Server{
		Addr:    apiConfig.Addr,
		Handler: httpapi.NewServer(orchestrator),
	}
	go func() {
		slog.Info("status API listening", "addr", apiConfig.Addr)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("status API failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		slog.Warn("failed to shut down status API", "error", err)
	}

	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
