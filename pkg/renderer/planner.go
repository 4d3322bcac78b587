package renderer

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// BandResult is delivered once per completed band, in completion order
type BandResult struct {
	Frame    uint64
	WorkerID int
	Width    int
	StartRow int
	RowCount int
	Pixels   []byte // width*RowCount packed pixels
	Duration time.Duration
}

// Image wraps the band pixels as an RGBA image
func (b BandResult) Image() *image.RGBA {
	return ToImage(b.Width, b.RowCount, b.Pixels)
}

// PlannerOption configures a RenderPlanner
type PlannerOption func(*RenderPlanner)

// WithLogger sets the planner logger
func WithLogger(logger zerolog.Logger) PlannerOption {
	return func(p *RenderPlanner) {
		p.logger = logger
	}
}

// RenderPlanner splits an image into horizontal bands and renders each band on its own
// worker. Workers receive serialized copies of the scene; they share no memory with the
// caller or each other.
//
// Each band is floor(height/jobCount) rows, so when height is not a multiple of jobCount
// the last height%jobCount rows are never rendered and stay zero in the assembled image.
type RenderPlanner struct {
	scene      *scene.Scene
	background core.Vec3
	jobCount   int
	width      int
	height     int

	workers   []*Worker
	results   chan Message
	collected chan struct{} // closed when collect returns
	wg        sync.WaitGroup
	logger    zerolog.Logger

	onUpdate   func(BandResult)
	onComplete func(*image.RGBA, RenderStats)

	mu          sync.Mutex // guards the frame bookkeeping below
	frame       uint64
	running     bool
	frameWidth  int // size of the frame in flight, fixed by Start
	frameHeight int
	completed   int
	pixels      []byte
	startTime   time.Time
	lastStats   RenderStats
	done        chan struct{}

	closeOnce sync.Once
}

// NewRenderPlanner creates a planner with jobCount workers (0 = use CPU count) and sends
// them the initial scene and background
func NewRenderPlanner(s *scene.Scene, background core.Vec3, jobCount int, opts ...PlannerOption) *RenderPlanner {
	if jobCount <= 0 {
		jobCount = runtime.NumCPU()
	}

	p := &RenderPlanner{
		scene:      s,
		background: background,
		jobCount:   jobCount,
		results:    make(chan Message, jobCount),
		logger:     zerolog.Nop(),
		collected:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < jobCount; i++ {
		p.workers = append(p.workers, newWorker(i, p.results, p.logger))
	}
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	go p.collect()

	p.UpdateScene()
	return p
}

// JobCount returns the number of workers
func (p *RenderPlanner) JobCount() int {
	return p.jobCount
}

// SetDimensions sets the image size used by the next Start
func (p *RenderPlanner) SetDimensions(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
}

// OnUpdateReceived registers a callback fired once per band as it arrives.
// Callbacks run on the planner's collector goroutine.
func (p *RenderPlanner) OnUpdateReceived(fn func(BandResult)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// OnComplete registers a callback fired when every band of a frame has arrived
func (p *RenderPlanner) OnComplete(fn func(*image.RGBA, RenderStats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// UpdateScene re-serializes the scene and background and sends them to every worker.
// In-flight renders are not restarted and finish with the geometry they had.
// The scene is read without locking, so call it from the goroutine that mutates the scene.
func (p *RenderPlanner) UpdateScene() {
	elements := p.scene.Serialize()
	p.mu.Lock()
	background := p.background.Array()
	p.mu.Unlock()
	for _, w := range p.workers {
		// Each worker gets its own copy of the slice
		data := append(elements[:0:0], elements...)
		w.Post(Message{Kind: MessageElements, Elements: data})
		w.Post(Message{Kind: MessageBackgroundColor, BackgroundColor: background})
	}
}

// SetBackground changes the background and pushes the scene to the workers
func (p *RenderPlanner) SetBackground(background core.Vec3) {
	p.mu.Lock()
	p.background = background
	p.mu.Unlock()
	p.UpdateScene()
}

// IsRunning reports whether a frame is in progress
func (p *RenderPlanner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start dispatches one band to every worker. Callers should only start when
// !IsRunning(); a second Start supersedes the frame in flight and its late bands
// are dropped.
func (p *RenderPlanner) Start() error {
	p.mu.Lock()
	width, height := p.width, p.height
	if width <= 0 || height <= 0 {
		p.mu.Unlock()
		return fmt.Errorf("planner %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	if p.running {
		p.logger.Warn().Uint64("frame", p.frame).Msg("start while previous frame still running")
	}

	p.frame++
	frame := p.frame
	p.running = true
	p.frameWidth, p.frameHeight = width, height
	p.completed = 0
	p.pixels = make([]byte, width*height*BytesPerPixel)
	p.startTime = time.Now()
	p.done = make(chan struct{})
	p.mu.Unlock()

	rowsPerJob := height / p.jobCount
	p.logger.Info().
		Uint64("frame", frame).
		Int("width", width).
		Int("height", height).
		Int("jobs", p.jobCount).
		Int("rows_per_job", rowsPerJob).
		Msg("render started")

	for i, w := range p.workers {
		w.Post(Message{Kind: MessageDimensions, Dimensions: [4]int{width, height, i * rowsPerJob, rowsPerJob}})
		w.Post(Message{Kind: MessageRender, Frame: frame})
	}
	return nil
}

// Wait blocks until the current frame completes or ctx is done.
// A frame whose band never arrives never completes.
func (p *RenderPlanner) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastStats returns the statistics of the most recently completed frame
func (p *RenderPlanner) LastStats() RenderStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStats
}

// Close stops every worker and waits for the collector to drain. The frame in flight is
// abandoned: no callback fires once Close returns. The planner cannot be used afterwards.
func (p *RenderPlanner) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.frame++
		p.running = false
		p.mu.Unlock()

		for _, w := range p.workers {
			close(w.inbox)
		}
		p.wg.Wait()
		close(p.results)
		<-p.collected
	})
}

// collect reassembles bands as they arrive and dispatches callbacks
func (p *RenderPlanner) collect() {
	defer close(p.collected)

	for msg := range p.results {
		p.mu.Lock()
		if msg.Frame != p.frame || !p.running {
			p.mu.Unlock()
			p.logger.Debug().Uint64("frame", msg.Frame).Int("worker", msg.WorkerID).Msg("dropping stale band")
			continue
		}

		width, height := p.frameWidth, p.frameHeight
		if msg.StartRow < 0 || msg.RowCount < 0 || msg.StartRow+msg.RowCount > height ||
			len(msg.Data) != width*msg.RowCount*BytesPerPixel {
			p.mu.Unlock()
			p.logger.Error().
				Uint64("frame", msg.Frame).
				Int("worker", msg.WorkerID).
				Int("start_row", msg.StartRow).
				Int("rows", msg.RowCount).
				Msg("band does not fit the frame")
			continue
		}

		copy(p.pixels[msg.StartRow*width*BytesPerPixel:], msg.Data)
		p.completed++

		var img *image.RGBA
		var stats RenderStats
		complete := p.completed == p.jobCount
		if complete {
			rows := p.jobCount * (height / p.jobCount)
			stats = RenderStats{
				Width:        width,
				Height:       height,
				Bands:        p.jobCount,
				RowsRendered: rows,
				Duration:     time.Since(p.startTime),
			}
			img = ToImage(width, height, p.pixels)
			p.lastStats = stats
			p.running = false
		}
		onUpdate, onComplete, done := p.onUpdate, p.onComplete, p.done
		p.mu.Unlock()

		if onUpdate != nil {
			onUpdate(BandResult{
				Frame:    msg.Frame,
				WorkerID: msg.WorkerID,
				Width:    width,
				StartRow: msg.StartRow,
				RowCount: msg.RowCount,
				Pixels:   msg.Data,
				Duration: msg.Duration,
			})
		}

		if complete {
			p.logger.Info().
				Uint64("frame", msg.Frame).
				Int("rows", stats.RowsRendered).
				Int("skipped_rows", stats.SkippedRows()).
				Dur("elapsed", stats.Duration).
				Msg("render complete")
			if onComplete != nil {
				onComplete(img, stats)
			}
			close(done)
		}
	}
}
