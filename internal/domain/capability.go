package domain

import (
	"context"
	"image"
)

// BarcodeDecoder decodes a barcode from a single frame.
// Decode returns ErrNoBarcode when the frame holds nothing readable.
type BarcodeDecoder interface {
	Decode(img image.Image) (string, error)
	Reset()
}

// ClassScore is one class probability produced by an image classifier
type ClassScore struct {
	ClassName   string  `json:"className"`
	Probability float64 `json:"probability"`
}

// ImageClassifier scores an image against a fixed class vocabulary.
// The returned slice is indexed like the vocabulary the classifier was built with.
type ImageClassifier interface {
	Classify(ctx context.Context, img image.Image) ([]ClassScore, error)
}

// Facing selects which camera a frame source should use
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// FrameSource is a camera-like producer of video frames
type FrameSource interface {
	Open(ctx context.Context, facing Facing) (FrameStream, error)
}

// FrameStream delivers frames until closed. Frames is closed when the stream ends.
type FrameStream interface {
	Frames() <-chan image.Image
	Close() error
}

// BoundingBox locates a detected item inside an image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
