package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/aimeal/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// frameBuffer is how many undecoded frames a live scan may queue
	frameBuffer  = 4
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
)

// socketWriter serializes writes to one websocket connection
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) send(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteJSON(v)
}

// keepAlive pings the client until ctx ends or a ping fails
func (w *socketWriter) keepAlive(ctx context.Context) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.mu.Lock()
			err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			w.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) upgrade(c *gin.Context) (*websocket.Conn, bool) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || isAllowedOrigin(origin, h.allowedOrigins)
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return nil, false
	}
	conn.SetReadLimit(maxImageBytes)
	return conn, true
}

// socketFrames is a frame source fed by binary websocket messages.
// push and end are called only from the connection's read loop.
type socketFrames struct {
	frames    chan image.Image
	done      chan struct{}
	closeOnce sync.Once
	opened    atomic.Bool
}

func newSocketFrames(buffer int) *socketFrames {
	return &socketFrames{
		frames: make(chan image.Image, buffer),
		done:   make(chan struct{}),
	}
}

// Open hands out the stream once; the client always supplies the back camera view
func (s *socketFrames) Open(ctx context.Context, facing domain.Facing) (domain.FrameStream, error) {
	if !s.opened.CompareAndSwap(false, true) {
		return nil, errors.New("frame source already open")
	}
	return s, nil
}

func (s *socketFrames) Frames() <-chan image.Image { return s.frames }

func (s *socketFrames) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// push queues a frame, dropping it when the consumer is behind
func (s *socketFrames) push(img image.Image) {
	select {
	case <-s.done:
	case s.frames <- img:
	default:
	}
}

func (s *socketFrames) end() {
	close(s.frames)
}

// liveMessage is a server to client event of a capture session
type liveMessage struct {
	Type    string             `json:"type"` // "mode", "state", "barcode", "foods" or "error"
	Mode    domain.CaptureMode `json:"mode,omitempty"`
	State   string             `json:"state,omitempty"`
	Barcode string             `json:"barcode,omitempty"`
	Food    *domain.FoodItem   `json:"food,omitempty"`
	Foods   []domain.FoodItem  `json:"foods,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// liveCommand is a client to server text message of a capture session
type liveCommand struct {
	Action string `json:"action"` // "mode", "scan", "capture" or "stop"
	Mode   string `json:"mode,omitempty"`
}

// captureSession is one websocket capture tab: photo mode keeps the latest
// frame for recognition, barcode mode feeds frames to a scanner
type captureSession struct {
	h       *Handler
	ctx     context.Context
	out     *socketWriter
	scanner *usecase.BarcodeScanner
	mode    domain.CaptureMode
	frames  *socketFrames
	latest  image.Image
}

// LiveCapture runs a websocket capture session.
// Binary messages are JPEG or PNG frames; text messages are liveCommand JSON.
func (h *Handler) LiveCapture(c *gin.Context) {
	if !h.ready(c, h.catalog != nil && h.decoders != nil, "barcode scanning") {
		return
	}
	mode, ok := domain.ParseCaptureMode(c.DefaultQuery("mode", string(domain.CaptureBarcode)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be photo or barcode"})
		return
	}

	conn, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := &socketWriter{conn: conn}
	go out.keepAlive(ctx)

	s := &captureSession{
		h:       h,
		ctx:     ctx,
		out:     out,
		scanner: usecase.NewBarcodeScanner(h.decoders, h.fallbackDelay),
	}
	defer s.stopScan()

	s.setMode(mode)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			img, err := decodeImage(bytes.NewReader(data))
			if err != nil {
				_ = out.send(liveMessage{Type: "error", Error: err.Error()})
				continue
			}
			s.handleFrame(img)
		case websocket.TextMessage:
			var cmd liveCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				_ = out.send(liveMessage{Type: "error", Error: "invalid command"})
				continue
			}
			if !s.handleCommand(cmd) {
				return
			}
		}
	}
}

// handleCommand applies a client command; false ends the session
func (s *captureSession) handleCommand(cmd liveCommand) bool {
	switch cmd.Action {
	case "stop":
		return false
	case "mode":
		mode, ok := domain.ParseCaptureMode(cmd.Mode)
		if !ok {
			_ = s.out.send(liveMessage{Type: "error", Error: "mode must be photo or barcode"})
			return true
		}
		s.setMode(mode)
	case "scan":
		if s.mode == domain.CaptureBarcode {
			s.stopScan()
			s.startScan()
		}
	case "capture":
		s.capture()
	default:
		_ = s.out.send(liveMessage{Type: "error", Error: "unknown action " + cmd.Action})
	}
	return true
}

func (s *captureSession) setMode(mode domain.CaptureMode) {
	if mode == s.mode {
		return
	}
	s.stopScan()
	s.mode = mode
	_ = s.out.send(liveMessage{Type: "mode", Mode: mode})

	if mode == domain.CaptureBarcode {
		s.startScan()
	}
}

func (s *captureSession) startScan() {
	frames := newSocketFrames(frameBuffer)
	if err := s.scanner.Start(s.ctx, frames, s.onBarcode, s.onScanError); err != nil {
		_ = s.out.send(liveMessage{Type: "error", Error: err.Error()})
		return
	}
	s.frames = frames
	_ = s.out.send(liveMessage{Type: "state", State: s.scanner.State().String()})
}

func (s *captureSession) stopScan() {
	s.scanner.Stop()
	if s.frames != nil {
		s.frames.end()
		s.frames = nil
	}
}

func (s *captureSession) handleFrame(img image.Image) {
	s.latest = img
	if s.frames != nil {
		s.frames.push(img)
	}
}

// capture recognizes foods in the latest photo-mode frame
func (s *captureSession) capture() {
	if s.mode != domain.CapturePhoto {
		_ = s.out.send(liveMessage{Type: "error", Error: "capture is only available in photo mode"})
		return
	}
	if s.h.recognizer == nil {
		_ = s.out.send(liveMessage{Type: "error", Error: "food recognition not configured"})
		return
	}
	if s.latest == nil {
		_ = s.out.send(liveMessage{Type: "error", Error: "no frame received yet"})
		return
	}

	foods := s.h.recognizer.Recognize(s.ctx, s.latest)
	_ = s.out.send(liveMessage{Type: "foods", Foods: foods})
}

func (s *captureSession) onBarcode(code string) {
	food := s.h.catalog.ResolveBarcode(s.ctx, code)
	_ = s.out.send(liveMessage{Type: "barcode", Barcode: code, Food: &food})
}

func (s *captureSession) onScanError(err error) {
	_ = s.out.send(liveMessage{Type: "error", Error: err.Error()})
}

// searchRequest is a client message of a live search session
type searchRequest struct {
	Query  string `json:"query"`
	Submit bool   `json:"submit,omitempty"`
}

// searchMessage answers one live search query
type searchMessage struct {
	Query  string              `json:"query"`
	Result domain.SearchResult `json:"result"`
}

// querySequence numbers live search queries so replies to superseded ones can be dropped
type querySequence struct {
	latest atomic.Uint64
}

func (q *querySequence) next() uint64 { return q.latest.Add(1) }

func (q *querySequence) isLatest(seq uint64) bool { return q.latest.Load() == seq }

// LiveSearch runs a websocket search-as-you-type session. Queries are
// debounced; a submit runs at once and cancels the pending one. A search
// already running when a newer query arrives is not answered.
func (h *Handler) LiveSearch(c *gin.Context) {
	if !h.ready(c, h.catalog != nil, "catalog") {
		return
	}

	conn, ok := h.upgrade(c)
	if !ok {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := &socketWriter{conn: conn}
	go out.keepAlive(ctx)

	debouncer := usecase.NewDebouncer(h.debounce)
	defer debouncer.Stop()

	var seq querySequence
	search := func(query string, n uint64) func() {
		return func() {
			result := h.catalog.SearchByName(ctx, query)
			if !seq.isLatest(n) {
				return
			}
			_ = out.send(searchMessage{Query: query, Result: result})
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req searchRequest
		if err := json.Unmarshal(data, &req); err != nil {
			_ = out.send(gin.H{"error": "invalid search message"})
			continue
		}

		n := seq.next()
		if req.Submit {
			debouncer.Submit(search(req.Query, n))
		} else {
			debouncer.Call(search(req.Query, n))
		}
	}
}
