package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, renders one image and writes it as PNG
func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseConfig(args, stdout)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.LogLevel)

	def, err := loadScene(cfg)
	if err != nil {
		return err
	}
	if cfg.Background != nil {
		def.Background = core.Vec3FromArray(*cfg.Background)
	}

	logger.Info().
		Str("scene", def.Name).
		Int("elements", def.Scene.Len()).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("jobs", cfg.Jobs).
		Msg("rendering")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	img, stats, err := render(ctx, def, cfg, logger)
	if err != nil {
		return err
	}

	filename := cfg.Output
	if filename == "" {
		filename = outputPath(def.Name, time.Now())
	}
	if err := loaders.SavePNG(filename, img); err != nil {
		return err
	}

	logger.Info().
		Str("file", filename).
		Dur("elapsed", stats.Duration).
		Int("skipped_rows", stats.SkippedRows()).
		Float64("pixels_per_second", stats.PixelsPerSecond()).
		Msg("render saved")
	return nil
}

// parseConfig builds the effective config: defaults, then the config file, then any flag
// given explicitly on the command line
func parseConfig(args []string, stdout io.Writer) (*config.Config, error) {
	defaults := config.Default()

	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "path to a YAML config file")
	sceneName := fs.String("scene", defaults.Scene, fmt.Sprintf("built-in scene: %s", strings.Join(scene.Names(), ", ")))
	sceneFile := fs.String("scene-file", "", "load the scene from a .yaml, .gltf or .glb file")
	width := fs.Int("width", defaults.Width, "image width in pixels")
	height := fs.Int("height", defaults.Height, "image height in pixels")
	jobs := fs.Int("jobs", defaults.Jobs, "render bands on this many workers (0 = synchronous)")
	output := fs.String("out", "", "output PNG path (default output/<scene>/render_<timestamp>.png)")
	logLevel := fs.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	help := fs.Bool("help", false, "Show help information")
	fs.Usage = func() {
		fmt.Fprintln(stdout, "Sphere Raytracer")
		fmt.Fprintln(stdout, "Usage: raytracer [options]")
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *help {
		fs.Usage()
		return nil, flag.ErrHelp
	}

	cfg := defaults
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg.Merge(fileCfg)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneName
		case "scene-file":
			cfg.SceneFile = *sceneFile
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "jobs":
			cfg.Jobs = *jobs
		case "out":
			cfg.Output = *output
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}

// loadScene resolves the scene file if one is given, otherwise the named built-in scene
func loadScene(cfg *config.Config) (*scene.Definition, error) {
	if cfg.SceneFile == "" {
		return scene.Create(cfg.Scene)
	}

	return loaders.LoadScene(cfg.SceneFile)
}

// render draws the scene synchronously when cfg.Jobs is 0, otherwise in bands
func render(ctx context.Context, def *scene.Definition, cfg *config.Config, logger zerolog.Logger) (*image.RGBA, renderer.RenderStats, error) {
	if cfg.Jobs == 0 {
		start := time.Now()
		rt := renderer.NewRayTracer(def.Background, def.Scene)
		pixels, err := rt.Render(cfg.Width, cfg.Height)
		if err != nil {
			return nil, renderer.RenderStats{}, err
		}
		stats := renderer.RenderStats{
			Width:        cfg.Width,
			Height:       cfg.Height,
			Bands:        1,
			RowsRendered: cfg.Height,
			Duration:     time.Since(start),
		}
		return renderer.ToImage(cfg.Width, cfg.Height, pixels), stats, nil
	}

	planner := renderer.NewRenderPlanner(def.Scene, def.Background, cfg.Jobs, renderer.WithLogger(logger))
	defer planner.Close()
	planner.SetDimensions(cfg.Width, cfg.Height)

	var img *image.RGBA
	planner.OnComplete(func(frame *image.RGBA, _ renderer.RenderStats) {
		img = frame
	})

	if err := planner.Start(); err != nil {
		return nil, renderer.RenderStats{}, err
	}
	if err := planner.Wait(ctx); err != nil {
		return nil, renderer.RenderStats{}, fmt.Errorf("render interrupted: %w", err)
	}
	return img, planner.LastStats(), nil
}

// outputPath returns output/<scene>/render_<timestamp>.png
func outputPath(sceneName string, now time.Time) string {
	if sceneName == "" {
		sceneName = "scene"
	}
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", timestamp))
}
