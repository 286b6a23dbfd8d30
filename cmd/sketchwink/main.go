package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sketchwink/sketchwink/internal/api"
	"github.com/sketchwink/sketchwink/internal/auth"
	"github.com/sketchwink/sketchwink/internal/config"
	"github.com/sketchwink/sketchwink/internal/database"
	"github.com/sketchwink/sketchwink/internal/directory"
	"github.com/sketchwink/sketchwink/internal/imagecache"
	"github.com/sketchwink/sketchwink/internal/logging"
	"github.com/sketchwink/sketchwink/internal/model"
	"github.com/sketchwink/sketchwink/internal/realtime"
	"github.com/sketchwink/sketchwink/internal/state"
	"github.com/sketchwink/sketchwink/internal/switcher"
	"github.com/sketchwink/sketchwink/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogPath)

	if dir := filepath.Dir(cfg.StatePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create state directory: %v", err)
		}
	}
	db, err := database.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("failed to open local state: %v", err)
	}
	defer db.Close()

	store := state.NewStore(db, cfg.StateSecret)

	token := cfg.SessionToken
	if token != "" {
		if err := store.SaveSessionToken(token); err != nil {
			logger.Warn("could not persist session token", "error", err)
		}
	} else {
		token, err = store.SessionToken()
		if err != nil {
			logger.Warn("could not read persisted session token", "error", err)
		}
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "No session token. Set SKETCHWINK_TOKEN or session_token in the config file.")
		os.Exit(1)
	}

	if session, err := auth.NewSession(token); err != nil {
		logger.Warn("session token is not a parseable JWT", "error", err)
	} else if session.Expired() {
		fmt.Fprintln(os.Stderr, "The session has expired. Sign in again to get a fresh token.")
		store.DeleteSessionToken()
		os.Exit(1)
	} else if session.ExpiresWithin(24 * time.Hour) {
		logger.Warn("session token expires within a day", "account_id", session.Claims.AccountID)
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Token:   token,
		Timeout: cfg.RequestTimeout,
	})

	dir := directory.New(client, store, logger.With("component", "directory"))
	sw := switcher.New(dir, logger.With("component", "switcher"))

	cache := imagecache.New(cfg.ThumbnailCacheSize)
	prefetcher := imagecache.NewPrefetcher(cache, client, logger.With("component", "imagecache"))
	dir.SetOnChange(func() {
		ids := referenceImageIDs(dir.Profiles())
		go prefetcher.Warm(context.Background(), ids)
	})

	app := tui.NewApp(dir, sw, logger.With("component", "tui"))
	program := tea.NewProgram(app, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := realtime.NewListener(realtime.Config{
		URL:   cfg.EventsURL,
		Token: token,
	}, func(ev realtime.Event) {
		if ev.Entity == "profile" {
			program.Send(tui.ProfilesChangedMsg{})
		}
	}, logger.With("component", "realtime"))
	listener.Start(ctx)
	defer listener.Stop()

	if _, err := program.Run(); err != nil {
		log.Fatalf("ui error: %v", err)
	}
}

// referenceImageIDs collects the character reference images worth
// caching ahead of display.
func referenceImageIDs(profiles []model.FamilyProfile) []string {
	var ids []string
	for _, p := range profiles {
		if p.Character != nil && p.Character.Kind == model.CharacterReference {
			ids = append(ids, p.Character.ImageID)
		}
	}
	return ids
}
