package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/web/server"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (default :8080)")
	configPath := flag.String("config", "", "path to a YAML config file")
	scenesDir := flag.String("scenes", "", "directory of .yaml/.gltf scene files")
	jobs := flag.Int("jobs", 0, "render workers per client (0 = CPU count)")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	log.Logger = log.Output(output)

	cfg := config.Default()
	cfg.Server.StaticDir = "static"
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg.Merge(fileCfg)
		}
	}
	cfg.Merge(&config.Config{Jobs: *jobs, Server: config.Server{Addr: *addr, ScenesDir: *scenesDir}})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webServer := server.NewServer(cfg, server.WithLogOutput(output))
	log.Info().Str("addr", cfg.Server.Addr).Msg("Sphere Raytracer Web Server")

	if err := webServer.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
