// tazak stub server - serves the tazak wire contract over canned data, for
// development and demos without the real service.
//
// Copyright (c) 2025 Tal Benamram
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benamram/tazak-tui/internal/stub"
)

func main() {
	port := flag.Int("port", 8787, "listen port")
	delay := flag.Duration("delay", 40*time.Millisecond, "pause between streamed lines")
	flag.Parse()

	server := stub.NewServer(*port).WithDelay(*delay)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	log.Printf("stub server listening on :%d", *port)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
