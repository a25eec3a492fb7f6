// Package main starts the shopkeepers service process lifecycle.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	shopkeeperscmd "github.com/louisbranch/shopkeepers/internal/cmd/shopkeepers"
	"github.com/louisbranch/shopkeepers/internal/platform/config"
)

func main() {
	cfg, err := shopkeeperscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SHOPKEEPERS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.ExitOnError("failed to serve", shopkeeperscmd.Run(ctx, cfg))
}
