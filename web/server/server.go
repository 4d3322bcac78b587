package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-sphere-raytracer/pkg/config"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Limits on requested image sizes
const (
	MinDimension = 1
	MaxDimension = 2000
	MaxJobs      = 64

	shutdownTimeout = 5 * time.Second
)

// Server handles web requests for the sphere raytracer
type Server struct {
	cfg       config.Config
	logOutput io.Writer
	logger    zerolog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogOutput sets where server logs are written. Per-session loggers write here too.
func WithLogOutput(w io.Writer) Option {
	return func(s *Server) {
		s.logOutput = w
	}
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, opts ...Option) *Server {
	s := &Server{cfg: *cfg, logOutput: io.Discard}
	for _, opt := range opts {
		opt(s)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	s.logger = zerolog.New(s.logOutput).Level(level).With().Timestamp().Logger()
	return s
}

// SceneResponse is the JSON form of a scene
type SceneResponse struct {
	Name       string                `json:"name"`
	Background [3]float64            `json:"background"`
	Elements   []geometry.SphereData `json:"elements"`
}

func newSceneResponse(def *scene.Definition) SceneResponse {
	return SceneResponse{
		Name:       def.Name,
		Background: def.Background.Array(),
		Elements:   def.Scene.Serialize(),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Server.StaticDir)))

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene", s.handleScene)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("starting web server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", httpServer.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the scene files on disk
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.cfg.Server.ScenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleScene returns the serialized scene
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	def, err := s.createScene(sceneParam(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newSceneResponse(def))
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene  string `json:"scene"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Jobs   int    `json:"jobs"` // 0 renders synchronously
}

// handleRender renders a whole frame and responds with a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	def, err := s.createScene(req.Scene)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	var pixels []byte
	if req.Jobs == 0 {
		pixels, err = renderer.NewRayTracer(def.Background, def.Scene).Render(req.Width, req.Height)
	} else {
		pixels, err = s.renderBands(r.Context(), def, req)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Render error: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, renderer.ToImage(req.Width, req.Height, pixels)); err != nil {
		writeError(w, http.StatusInternalServerError, "Encode error: "+err.Error())
		return
	}

	s.logger.Info().
		Str("scene", def.Name).
		Int("width", req.Width).
		Int("height", req.Height).
		Int("jobs", req.Jobs).
		Dur("elapsed", time.Since(start)).
		Msg("render served")

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// renderBands renders one frame on a throwaway planner
func (s *Server) renderBands(ctx context.Context, def *scene.Definition, req *RenderRequest) ([]byte, error) {
	planner := renderer.NewRenderPlanner(def.Scene, def.Background, req.Jobs, renderer.WithLogger(s.logger))
	defer planner.Close()
	planner.SetDimensions(req.Width, req.Height)

	var pixels []byte
	planner.OnComplete(func(img *image.RGBA, _ renderer.RenderStats) {
		pixels = img.Pix
	})
	if err := planner.Start(); err != nil {
		return nil, err
	}
	if err := planner.Wait(ctx); err != nil {
		return nil, err
	}
	return pixels, nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: sceneParam(values)}

	defaultWidth := clamp(s.cfg.Width, MinDimension, MaxDimension)
	defaultHeight := clamp(s.cfg.Height, MinDimension, MaxDimension)

	var err error
	if req.Width, err = parseIntParam(values, "width", defaultWidth, MinDimension, MaxDimension); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", defaultHeight, MinDimension, MaxDimension); err != nil {
		return nil, err
	}
	if req.Jobs, err = parseIntParam(values, "jobs", clamp(s.cfg.Jobs, 0, MaxJobs), 0, MaxJobs); err != nil {
		return nil, err
	}
	return req, nil
}

// sceneParam returns the scene id from the query, falling back to the default scene
func sceneParam(values url.Values) string {
	if id := values.Get("scene"); id != "" {
		return id
	}
	return "default"
}

// createScene resolves a scene id: a built-in name or a discovered file id such as
// "yaml:studio"
func (s *Server) createScene(id string) (*scene.Definition, error) {
	if !strings.Contains(id, ":") {
		return scene.Create(id)
	}

	files, err := scene.ListSceneFiles(s.cfg.Server.ScenesDir)
	if err != nil {
		return nil, err
	}
	for _, info := range files {
		if info.ID != id {
			continue
		}
		switch info.Type {
		case scene.TypeYAML:
			return loaders.LoadSceneFile(info.FilePath)
		case scene.TypeGLTF:
			return loaders.LoadGLTF(info.FilePath)
		}
	}
	return nil, fmt.Errorf("unknown scene %q", id)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
