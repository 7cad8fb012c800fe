package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultFallbackDelay is how long the fallback scanner waits before
// reporting the example barcode
const DefaultFallbackDelay = 2 * time.Second

// DecoderSource yields the barcode decoder and whether it is the real one
type DecoderSource interface {
	Get() (domain.BarcodeDecoder, bool)
}

// BarcodeScanner runs one live capture session at a time:
// idle -> cameraRequested -> streaming -> decoded|errored -> idle
type BarcodeScanner struct {
	decoders      DecoderSource
	fallbackDelay time.Duration
	logger        zerolog.Logger

	mu      sync.Mutex
	state   domain.ScanState
	session *scanSession
}

// scanSession is the resources of one Start call
type scanSession struct {
	cancel   context.CancelFunc
	stream   domain.FrameStream
	decoder  domain.BarcodeDecoder
	onResult func(code string)
	onError  func(err error)
}

// NewBarcodeScanner creates an idle scanner. delay < 0 uses DefaultFallbackDelay.
func NewBarcodeScanner(decoders DecoderSource, fallbackDelay time.Duration) *BarcodeScanner {
	if fallbackDelay < 0 {
		fallbackDelay = DefaultFallbackDelay
	}
	return &BarcodeScanner{
		decoders:      decoders,
		fallbackDelay: fallbackDelay,
		logger:        log.With().Str("component", "barcode_scanner").Logger(),
		state:         domain.ScanIdle,
	}
}

// State returns the current scan state
func (s *BarcodeScanner) State() domain.ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the rear camera from source and scans until a barcode is
// decoded. onResult fires at most once per Start. Device failures are
// reported through onError and leave the scanner idle.
// Start returns ErrScannerBusy when a session is already active.
func (s *BarcodeScanner) Start(ctx context.Context, source domain.FrameSource, onResult func(code string), onError func(err error)) error {
	s.mu.Lock()
	if s.state != domain.ScanIdle {
		s.mu.Unlock()
		return domain.ErrScannerBusy
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &scanSession{cancel: cancel, onResult: onResult, onError: onError}
	s.session = sess
	s.transition(domain.ScanCameraRequested)
	s.mu.Unlock()

	stream, err := source.Open(sessCtx, domain.FacingEnvironment)
	if err != nil {
		s.fail(sess, fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err))
		return nil
	}

	s.mu.Lock()
	if s.session != sess {
		// Stopped while the camera was opening
		s.mu.Unlock()
		stream.Close()
		return nil
	}
	sess.stream = stream
	decoder, available := s.decoders.Get()
	sess.decoder = decoder
	s.transition(domain.ScanStreaming)
	s.mu.Unlock()

	if available {
		go s.decodeFrames(sessCtx, sess)
	} else {
		go s.emitAfterDelay(sessCtx, sess)
	}
	return nil
}

// Stop ends the current session and releases the camera. It is idempotent
// and safe to call from inside a callback. No callback fires after Stop.
func (s *BarcodeScanner) Stop() {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.transition(domain.ScanIdle)
	s.mu.Unlock()

	if sess != nil {
		sess.release()
	}
}

// DecodeImage decodes a still image. When the decoder is unavailable or
// finds nothing it returns the example barcode and decoded=false.
func (s *BarcodeScanner) DecodeImage(ctx context.Context, img image.Image) (code string, decoded bool) {
	decoder, available := s.decoders.Get()
	if !available {
		return domain.ExampleBarcode, false
	}

	code, err := decoder.Decode(img)
	if err != nil {
		if !errors.Is(err, domain.ErrNoBarcode) {
			s.logger.Warn().Err(err).Msg("still image decode failed")
		}
		return domain.ExampleBarcode, false
	}
	return code, true
}

// decodeFrames tries every frame until one decodes
func (s *BarcodeScanner) decodeFrames(ctx context.Context, sess *scanSession) {
	frames := sess.stream.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				if ctx.Err() == nil {
					s.fail(sess, fmt.Errorf("%w: camera stream ended", domain.ErrCameraUnavailable))
				}
				return
			}
			code, err := sess.decoder.Decode(frame)
			if err != nil {
				// Nothing readable in this frame; keep scanning
				continue
			}
			s.emit(sess, code)
			return
		}
	}
}

// emitAfterDelay reports the fallback value once the delay has passed.
// Frames are drained so the source never blocks.
func (s *BarcodeScanner) emitAfterDelay(ctx context.Context, sess *scanSession) {
	timer := time.NewTimer(s.fallbackDelay)
	defer timer.Stop()

	frames := sess.stream.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				frames = nil
			}
		case <-timer.C:
			code, err := sess.decoder.Decode(nil)
			if err != nil || code == "" {
				code = domain.ExampleBarcode
			}
			s.emit(sess, code)
			return
		}
	}
}

// emit delivers a decoded value if sess is still the active session
func (s *BarcodeScanner) emit(sess *scanSession, code string) {
	s.mu.Lock()
	if s.session != sess || s.state != domain.ScanStreaming {
		s.mu.Unlock()
		return
	}
	s.transition(domain.ScanDecoded)
	s.mu.Unlock()

	s.logger.Debug().Str("barcode", code).Msg("barcode decoded")
	if sess.onResult != nil {
		sess.onResult(code)
	}
}

// fail reports a device error, releases the session and returns to idle
func (s *BarcodeScanner) fail(sess *scanSession, err error) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	s.transition(domain.ScanErrored)
	s.session = nil
	s.transition(domain.ScanIdle)
	s.mu.Unlock()

	sess.release()
	s.logger.Warn().Err(err).Msg("barcode scan failed")
	if sess.onError != nil {
		sess.onError(err)
	}
}

// transition moves to next. Callers hold s.mu.
func (s *BarcodeScanner) transition(next domain.ScanState) {
	if s.state == next {
		return
	}
	if !s.state.CanTransition(next) {
		s.logger.Error().Stringer("from", s.state).Stringer("to", next).Msg("illegal scan state transition")
		return
	}
	s.state = next
}

// release cancels the session and frees the camera and decoder
func (sess *scanSession) release() {
	sess.cancel()
	if sess.stream != nil {
		sess.stream.Close()
	}
	if sess.decoder != nil {
		sess.decoder.Reset()
	}
}
