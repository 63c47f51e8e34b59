// tazak TUI - a terminal client for the tazak conversation-search chat.
//
// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later
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

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benamram/tazak-tui/internal/api"
	"github.com/benamram/tazak-tui/internal/config"
	"github.com/benamram/tazak-tui/internal/model"
	"github.com/benamram/tazak-tui/internal/report"
	"github.com/benamram/tazak-tui/internal/store"
	"github.com/benamram/tazak-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.tazak/config.toml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tazak %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "tazak:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Keep log output out of the alternate screen.
	logFile, err := openLogFile()
	if err == nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.NewStoreWithPath(cfg.Storage.ChatsPath)
	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.AuthToken)
	reports := report.NewCache(client)

	program := tea.NewProgram(
		chat.New(ctx, cfg, client, st, reports),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Another client writing the same collection file shows up here.
	var watcher *store.Watcher
	if cfg.Storage.WatchExternal {
		watcher, err = store.NewWatcher(st, 200*time.Millisecond, func(chats model.Chats) {
			program.Send(chat.ExternalChatsMsg{Chats: chats})
		})
		if err != nil {
			log.Printf("store watcher unavailable: %v", err)
		} else {
			if err := watcher.Watch(); err != nil {
				log.Printf("store watcher: %v", err)
			}
			defer watcher.Close()
		}
	}

	_, err = program.Run()
	return err
}

// loadConfig resolves the configuration, from an explicit path when given.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// openLogFile opens ~/.tazak/tazak.log for append.
func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := home + "/.tazak"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(dir+"/tazak.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
