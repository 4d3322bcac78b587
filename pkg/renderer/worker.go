package renderer

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// MessageKind tags a message exchanged with a render worker
type MessageKind string

const (
	// MessageElements replaces the worker's scene with Message.Elements
	MessageElements MessageKind = "elements"
	// MessageBackgroundColor sets the worker's background to Message.BackgroundColor
	MessageBackgroundColor MessageKind = "backgroundColor"
	// MessageDimensions sets the band to render from Message.Dimensions
	MessageDimensions MessageKind = "dimensions"
	// MessageRender renders the current band and replies with MessageResult
	MessageRender MessageKind = "render"
	// MessageResult carries the pixels of a rendered band back to the planner
	MessageResult MessageKind = "result"
)

// Message is the only thing that crosses a worker boundary. Every payload is plain
// data; no scene objects are shared.
type Message struct {
	Kind            MessageKind
	Elements        []geometry.SphereData
	BackgroundColor [3]float64
	Dimensions      [4]int // width, height, startRow, rowCount
	Frame           uint64 // render generation, echoed in the result

	// Result fields
	WorkerID int
	StartRow int
	RowCount int
	Data     []byte
	Duration time.Duration
}

// workerState is everything a worker knows. It starts empty and changes only in
// response to incoming messages.
type workerState struct {
	scene      *scene.Scene
	background core.Vec3
	width      int
	height     int
	startRow   int
	rowCount   int
}

func newWorkerState() *workerState {
	return &workerState{scene: scene.New()}
}

// Worker renders bands on its own goroutine
type Worker struct {
	ID      int
	inbox   chan Message
	results chan<- Message
	logger  zerolog.Logger
}

func newWorker(id int, results chan<- Message, logger zerolog.Logger) *Worker {
	return &Worker{
		ID:      id,
		inbox:   make(chan Message, 8),
		results: results,
		logger:  logger.With().Int("worker", id).Logger(),
	}
}

// Post queues a message for the worker. Messages are handled in the order posted.
func (w *Worker) Post(msg Message) {
	w.inbox <- msg
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	state := newWorkerState()
	for msg := range w.inbox {
		if reply, ok := w.handle(state, msg); ok {
			w.results <- reply
		}
	}
}

// handle applies one message to the state and returns a reply if the message needs one
func (w *Worker) handle(state *workerState, msg Message) (Message, bool) {
	switch msg.Kind {
	case MessageElements:
		if err := state.scene.Load(msg.Elements); err != nil {
			w.logger.Error().Err(err).Msg("rejected scene update")
		}
	case MessageBackgroundColor:
		state.background = core.Vec3FromArray(msg.BackgroundColor)
	case MessageDimensions:
		state.width, state.height = msg.Dimensions[0], msg.Dimensions[1]
		state.startRow, state.rowCount = msg.Dimensions[2], msg.Dimensions[3]
	case MessageRender:
		return w.render(state, msg.Frame)
	default:
		w.logger.Warn().Str("kind", string(msg.Kind)).Msg("unknown message")
	}
	return Message{}, false
}

// render synthesizes the current band. A failed render produces no reply.
func (w *Worker) render(state *workerState, frame uint64) (Message, bool) {
	start := time.Now()
	rt := NewRayTracer(state.background, state.scene)
	buffer, err := rt.RenderRows(state.width, state.height, state.startRow, state.rowCount)
	if err != nil {
		w.logger.Error().Err(err).Uint64("frame", frame).Msg("band render failed")
		return Message{}, false
	}

	elapsed := time.Since(start)
	w.logger.Debug().
		Uint64("frame", frame).
		Int("start_row", state.startRow).
		Int("rows", state.rowCount).
		Dur("elapsed", elapsed).
		Msg("band rendered")

	return Message{
		Kind:     MessageResult,
		Frame:    frame,
		WorkerID: w.ID,
		StartRow: state.startRow,
		RowCount: state.rowCount,
		Data:     buffer,
		Duration: elapsed,
	}, true
}
