/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/config"
)

var version = "0.3.0"

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "novelsync",
	Short: "Glossary-guided web novel chapter translator",
	Long: `novelsync translates web novel chapters and descriptions while keeping
names, sects, ranks and techniques consistent through a per-novel glossary.

Chapters are split into chunks, translated through the configured backend
chain, checked against the glossary and reassembled. A chapter is only
published when every chunk succeeded.

Use "novelsync translate --help" for translation options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./novelsync.yaml or $HOME/.config/novelsync/novelsync.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")
}

// loadConfig reads the config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// warnMarkers identify progress lines that report a failure or a degraded
// result.
var warnMarkers = []string{
	"failed",
	"cancelled",
	"exhausted",
	"keeping original",
	"missing expected",
	"skipped",
}

func messageLevel(msg string) slog.Level {
	for _, m := range warnMarkers {
		if strings.Contains(msg, m) {
			return slog.LevelWarn
		}
	}
	return slog.LevelInfo
}

// logFunc adapts a structured logger to the plain progress callback taken by
// the translation core. Failure lines are logged at warn level.
func logFunc(logger *slog.Logger, component string) func(string) {
	return func(msg string) {
		logger.Log(context.Background(), messageLevel(msg), msg, "component", component)
	}
}
