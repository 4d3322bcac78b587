package main

import (
	"bytes"
	"context"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func TestParseConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("width: 320\nheight: 200\nscene: single\n"), 0644))

	tests := []struct {
		name     string
		args     []string
		expected func(*config.Config)
	}{
		{"defaults", nil, func(c *config.Config) {}},
		{"flags", []string{"-width", "10", "-jobs", "3"}, func(c *config.Config) {
			c.Width = 10
			c.Jobs = 3
		}},
		{"config file", []string{"-config", cfgPath}, func(c *config.Config) {
			c.Width, c.Height, c.Scene = 320, 200, "single"
		}},
		{"explicit flags beat config file", []string{"-config", cfgPath, "-width", "64"}, func(c *config.Config) {
			c.Width, c.Height, c.Scene = 64, 200, "single"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected := config.Default()
			tt.expected(expected)

			cfg, err := parseConfig(tt.args, &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, expected, cfg)
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	var out bytes.Buffer
	_, err := parseConfig([]string{"-help"}, &out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "-scene-file")

	_, err = parseConfig([]string{"-width", "0"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = parseConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "studio.yaml")
	require.NoError(t, loaders.SaveSceneFile(yamlPath, scene.NewSingleLightScene()))

	tests := []struct {
		name      string
		scene     string
		sceneFile string
		wantName  string
		wantErr   bool
	}{
		{"builtin", "default", "", "default", false},
		{"unknown builtin", "nonexistent", "", "", true},
		{"yaml file wins over builtin", "default", yamlPath, "single", false},
		{"unsupported extension", "", filepath.Join(dir, "scene.pbrt"), "", true},
		{"missing file", "", filepath.Join(dir, "missing.yaml"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Scene = tt.scene
			cfg.SceneFile = tt.sceneFile

			def, err := loadScene(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, def)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, def.Name)
		})
	}
}

func TestRenderSynchronousMatchesPlanner(t *testing.T) {
	def := scene.NewDefaultScene()
	cfg := config.Default()
	cfg.Width, cfg.Height = 24, 18

	sync, syncStats, err := render(context.Background(), def, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0, syncStats.SkippedRows())

	cfg.Jobs = 3
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	banded, bandStats, err := render(ctx, def, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, bandStats.Bands)
	assert.Equal(t, sync.Pix, banded.Pix)
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("output", "default", "render_20240309_140507.png"), outputPath("default", now))
	assert.Equal(t, filepath.Join("output", "scene", "render_20240309_140507.png"), outputPath("", now))
}

func TestRunWritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "render.png")
	var stderr bytes.Buffer

	err := run([]string{"-scene", "empty", "-width", "4", "-height", "3", "-jobs", "2", "-out", out}, &bytes.Buffer{}, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "render saved")

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())

	// 3 rows over 2 jobs: the last row is never rendered
	assert.Equal(t, color.RGBA{R: 178, G: 204, B: 229, A: 255}, color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBA{}, color.RGBAModel.Convert(img.At(0, 2)))
}
