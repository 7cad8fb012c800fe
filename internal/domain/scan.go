package domain

// ExampleBarcode is the EAN-13 value produced when no real decode is possible
const ExampleBarcode = "5901234123457"

// ScanState is the lifecycle of one barcode capture session
type ScanState int

const (
	ScanIdle ScanState = iota
	ScanCameraRequested
	ScanStreaming
	ScanDecoded
	ScanErrored
)

var scanStateNames = map[ScanState]string{
	ScanIdle:            "idle",
	ScanCameraRequested: "cameraRequested",
	ScanStreaming:       "streaming",
	ScanDecoded:         "decoded",
	ScanErrored:         "errored",
}

func (s ScanState) String() string {
	if name, ok := scanStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// scanTransitions lists the legal next states. Any state may return to idle.
var scanTransitions = map[ScanState][]ScanState{
	ScanIdle:            {ScanCameraRequested},
	ScanCameraRequested: {ScanStreaming, ScanErrored},
	ScanStreaming:       {ScanDecoded, ScanErrored},
	ScanDecoded:         {},
	ScanErrored:         {},
}

// CanTransition reports whether moving from s to next is allowed
func (s ScanState) CanTransition(next ScanState) bool {
	if next == ScanIdle {
		return true
	}
	for _, allowed := range scanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CaptureMode is the active tab of a capture session
type CaptureMode string

const (
	CapturePhoto   CaptureMode = "photo"
	CaptureBarcode CaptureMode = "barcode"
)

// ParseCaptureMode validates a mode string, defaulting to photo
func ParseCaptureMode(s string) (CaptureMode, bool) {
	switch CaptureMode(s) {
	case "", CapturePhoto:
		return CapturePhoto, true
	case CaptureBarcode:
		return CaptureBarcode, true
	}
	return "", false
}
