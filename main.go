package main

import (
	"context"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/lefinal/masc-match/app"
	"github.com/spf13/pflag"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.json", "path to the JSON config file")
	envFile := pflag.String("env-file", ".env", "optional file with environment variables")
	pflag.Parse()
	// Environment variables from the file do not override already set ones.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = app.NewApp(config).Boot(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
