package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/df07/go-sphere-raytracer/pkg/animate"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Message types exchanged over the websocket
const (
	TypeScene    = "scene"    // client: switch scene; server: the current scene
	TypeRender   = "render"   // client: render a frame at the given size
	TypeMaterial = "material" // client: edit the material of one element
	TypeComplete = "complete" // server: every band of a frame has been sent
	TypeConsole  = "console"  // server: a log line from the render
	TypeError    = "error"    // server: a rejected request
)

// BandHeaderSize is the length of the header in front of every binary band frame:
// startRow and rowCount as little-endian uint32
const BandHeaderSize = 8

const (
	maxMessageSize = 64 * 1024
	outboxSize     = 64
	consoleBuffer  = 50
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ClientMessage is a request sent by the browser
type ClientMessage struct {
	Type     string                 `json:"type"`
	Scene    string                 `json:"scene,omitempty"`
	Width    int                    `json:"width,omitempty"`
	Height   int                    `json:"height,omitempty"`
	Index    int                    `json:"index"`
	Material *geometry.MaterialData `json:"material,omitempty"`
}

// FrameStats summarizes a completed frame
type FrameStats struct {
	Width       int   `json:"width"`
	Height      int   `json:"height"`
	Bands       int   `json:"bands"`
	Rows        int   `json:"rows"`
	SkippedRows int   `json:"skippedRows"`
	ElapsedMs   int64 `json:"elapsedMs"`
	Animating   bool  `json:"animating"` // another frame follows for an in-flight material edit
}

// ServerEvent is a JSON text frame sent to the browser
type ServerEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Scene   *SceneResponse  `json:"scene,omitempty"`
	Stats   *FrameStats     `json:"stats,omitempty"`
	Console *ConsoleMessage `json:"console,omitempty"`
}

// EncodeBandFrame builds the binary websocket frame for one band
func EncodeBandFrame(band renderer.BandResult) []byte {
	frame := make([]byte, BandHeaderSize+len(band.Pixels))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(band.StartRow))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(band.RowCount))
	copy(frame[BandHeaderSize:], band.Pixels)
	return frame
}

// DecodeBandFrame splits a binary band frame into its header and pixels
func DecodeBandFrame(frame []byte) (startRow, rowCount int, pixels []byte, err error) {
	if len(frame) < BandHeaderSize {
		return 0, 0, nil, fmt.Errorf("band frame of %d bytes is shorter than its header", len(frame))
	}
	startRow = int(binary.LittleEndian.Uint32(frame[0:4]))
	rowCount = int(binary.LittleEndian.Uint32(frame[4:8]))
	return startRow, rowCount, frame[BandHeaderSize:], nil
}

// outboundFrame is one websocket message waiting for the writer goroutine
type outboundFrame struct {
	messageType int
	data        []byte
}

// completedFrame is a frame finished by a planner, tagged with the planner generation
type completedFrame struct {
	generation int
	stats      renderer.RenderStats
}

// session is one websocket client with its own scene copy and planner
type session struct {
	server *Server
	conn   *websocket.Conn
	logger zerolog.Logger

	outbox  chan outboundFrame
	console chan ConsoleMessage
	frames  chan completedFrame

	def        *scene.Definition
	planner    *renderer.RenderPlanner
	generation int
	springs    map[int]*animate.MaterialSpring

	width, height int
	running       bool
	pendingRender bool
}

// handleWebSocket streams bands of live renders and applies material edits
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The request context is not tied to a hijacked connection; the read loop cancels
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := s.newSession(conn)
	defer sess.close()

	go sess.writeLoop(ctx)
	go sess.streamConsoleMessages(ctx)

	incoming := make(chan ClientMessage)
	go sess.readLoop(ctx, cancel, incoming)

	initial := s.cfg.Scene
	if initial == "" {
		initial = "default"
	}
	if err := sess.loadScene(ctx, initial); err != nil {
		sess.sendError(ctx, err.Error())
	}

	sess.run(ctx, incoming)
}

func (s *Server) newSession(conn *websocket.Conn) *session {
	sess := &session{
		server:  s,
		conn:    conn,
		outbox:  make(chan outboundFrame, outboxSize),
		console: make(chan ConsoleMessage, consoleBuffer),
		frames:  make(chan completedFrame, 4),
		springs: map[int]*animate.MaterialSpring{},
	}

	id := fmt.Sprintf("ws-%d", time.Now().UnixNano())
	sess.logger = zerolog.New(zerolog.MultiLevelWriter(s.logOutput, NewConsoleWriter(sess.console))).
		Level(s.logger.GetLevel()).
		With().Timestamp().Str("session", id).Logger()
	return sess
}

func (sess *session) close() {
	if sess.planner != nil {
		sess.planner.Close()
	}
}

// run handles client requests and completed frames until the connection goes away
func (sess *session) run(ctx context.Context, incoming <-chan ClientMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-incoming:
			sess.handleMessage(ctx, msg)
		case frame := <-sess.frames:
			sess.frameComplete(ctx, frame)
		}
	}
}

// readLoop decodes client messages. A connection error ends the session.
func (sess *session) readLoop(ctx context.Context, cancel context.CancelFunc, incoming chan<- ClientMessage) {
	defer cancel()
	sess.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.logger.Warn().Err(err).Msg("websocket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.sendError(ctx, "invalid message: "+err.Error())
			continue
		}

		select {
		case incoming <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// writeLoop is the only goroutine that writes to the connection
func (sess *session) writeLoop(ctx context.Context) {
	for {
		select {
		case frame := <-sess.outbox:
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(frame.messageType, frame.data); err != nil {
				sess.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards session log lines to the client, dropping them when the
// outbox is full
func (sess *session) streamConsoleMessages(ctx context.Context) {
	for {
		select {
		case msg := <-sess.console:
			data, err := json.Marshal(ServerEvent{Type: TypeConsole, Console: &msg})
			if err != nil {
				continue
			}
			select {
			case sess.outbox <- outboundFrame{websocket.TextMessage, data}:
			case <-ctx.Done():
				return
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

func (sess *session) send(ctx context.Context, frame outboundFrame) {
	select {
	case sess.outbox <- frame:
	case <-ctx.Done():
	}
}

func (sess *session) sendEvent(ctx context.Context, event ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		sess.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}
	sess.send(ctx, outboundFrame{websocket.TextMessage, data})
}

func (sess *session) sendError(ctx context.Context, message string) {
	sess.sendEvent(ctx, ServerEvent{Type: TypeError, Message: message})
}

func (sess *session) handleMessage(ctx context.Context, msg ClientMessage) {
	var err error
	switch msg.Type {
	case TypeScene:
		err = sess.loadScene(ctx, msg.Scene)
	case TypeRender:
		err = sess.requestRender(msg.Width, msg.Height)
	case TypeMaterial:
		err = sess.editMaterial(msg.Index, msg.Material)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		sess.logger.Warn().Err(err).Str("type", msg.Type).Msg("request rejected")
		sess.sendError(ctx, err.Error())
	}
}

// loadScene replaces the session scene and planner. A frame in flight is abandoned.
func (sess *session) loadScene(ctx context.Context, id string) error {
	def, err := sess.server.createScene(id)
	if err != nil {
		return err
	}
	if sess.planner != nil {
		sess.planner.Close()
	}

	sess.def = def
	sess.springs = map[int]*animate.MaterialSpring{}
	sess.running = false
	sess.generation++
	generation := sess.generation

	sess.planner = renderer.NewRenderPlanner(def.Scene, def.Background, sess.server.cfg.Jobs,
		renderer.WithLogger(sess.logger))
	sess.planner.OnUpdateReceived(func(band renderer.BandResult) {
		sess.send(ctx, outboundFrame{websocket.BinaryMessage, EncodeBandFrame(band)})
	})
	sess.planner.OnComplete(func(_ *image.RGBA, stats renderer.RenderStats) {
		select {
		case sess.frames <- completedFrame{generation: generation, stats: stats}:
		case <-ctx.Done():
		}
	})

	sess.logger.Info().Str("scene", def.Name).Int("elements", def.Scene.Len()).Msg("scene loaded")
	response := newSceneResponse(def)
	sess.sendEvent(ctx, ServerEvent{Type: TypeScene, Scene: &response})

	if sess.width > 0 && sess.height > 0 {
		return sess.startFrame()
	}
	return nil
}

// requestRender renders at the given size now, or after the frame in flight
func (sess *session) requestRender(width, height int) error {
	if width < MinDimension || width > MaxDimension || height < MinDimension || height > MaxDimension {
		return fmt.Errorf("dimensions %dx%d must be between %d and %d", width, height, MinDimension, MaxDimension)
	}
	sess.width, sess.height = width, height
	if sess.running {
		sess.pendingRender = true
		return nil
	}
	return sess.startFrame()
}

// editMaterial validates an edit and starts easing the element toward it
func (sess *session) editMaterial(index int, data *geometry.MaterialData) error {
	if sess.def == nil {
		return errors.New("no scene loaded")
	}
	elements := sess.def.Scene.Elements()
	if index < 0 || index >= len(elements) {
		return fmt.Errorf("element index %d out of range [0,%d)", index, len(elements))
	}
	if data == nil {
		return errors.New("material edit without a material")
	}

	target, err := geometry.DeserializeMaterial(*data)
	if err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}

	element := elements[index]
	if sess.width == 0 || sess.height == 0 {
		// Nothing on screen to animate
		element.SetMaterial(target)
		sess.planner.UpdateScene()
		return nil
	}

	spring, ok := sess.springs[index]
	if !ok {
		spring = animate.NewMaterialSpring(element.Material)
		sess.springs[index] = spring
	}
	spring.SetTarget(target)
	sess.logger.Debug().Int("index", index).Msg("material edit")

	if sess.running {
		return nil
	}
	sess.stepAnimations()
	return sess.startFrame()
}

// stepAnimations advances every active spring one frame and pushes the scene to the
// workers. It reports whether any spring is still moving.
func (sess *session) stepAnimations() bool {
	if len(sess.springs) == 0 {
		return false
	}

	elements := sess.def.Scene.Elements()
	for index, spring := range sess.springs {
		m, done := spring.Step()
		elements[index].SetMaterial(m)
		if done {
			delete(sess.springs, index)
		}
	}
	sess.planner.UpdateScene()
	return len(sess.springs) > 0
}

func (sess *session) startFrame() error {
	sess.planner.SetDimensions(sess.width, sess.height)
	if err := sess.planner.Start(); err != nil {
		return err
	}
	sess.running = true
	sess.pendingRender = false
	return nil
}

// frameComplete reports a finished frame and starts the next one if an animation or a
// render request is waiting
func (sess *session) frameComplete(ctx context.Context, frame completedFrame) {
	if frame.generation != sess.generation {
		return
	}
	sess.running = false

	animating := len(sess.springs) > 0
	sess.sendEvent(ctx, ServerEvent{Type: TypeComplete, Stats: &FrameStats{
		Width:       frame.stats.Width,
		Height:      frame.stats.Height,
		Bands:       frame.stats.Bands,
		Rows:        frame.stats.RowsRendered,
		SkippedRows: frame.stats.SkippedRows(),
		ElapsedMs:   frame.stats.Duration.Milliseconds(),
		Animating:   animating,
	}})

	if !animating && !sess.pendingRender {
		return
	}
	sess.stepAnimations()
	if err := sess.startFrame(); err != nil {
		sess.sendError(ctx, err.Error())
	}
}
