package main

import (
	"fmt"
	"log/slog"
	"os"

	"sopchat/internal/api"
	"sopchat/internal/chat"
	"sopchat/internal/config"
	"sopchat/internal/store"
	"sopchat/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sopchat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	// The terminal belongs to the TUI, so structured logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	snapshots, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	var prior []chat.Message
	if cfg.Reset {
		_ = snapshots.Save(cfg.SessionID, nil)
	} else {
		prior = snapshots.Load(cfg.SessionID)
	}
	transcript := chat.NewStore(snapshots.Saver(cfg.SessionID), prior)

	client := api.NewClient(
		api.WithBaseURL(cfg.BaseURL),
		api.WithLogger(logger),
	)

	logger.Info("starting", "session", cfg.SessionID, "base_url", cfg.BaseURL, "restored", len(prior))

	model := ui.NewModel(cfg, client, transcript)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
