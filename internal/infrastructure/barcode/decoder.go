package barcode

import (
	"fmt"
	"image"
	"sync"

	"github.com/aimeal/backend/internal/domain"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder reads retail barcodes (EAN/UPC, Code 128) and QR codes from images
type Decoder struct {
	mu      sync.Mutex
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder builds a decoder with one reader per supported symbology
func NewDecoder() (*Decoder, error) {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	readers := []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
		qrcode.NewQRCodeReader(),
	}

	return &Decoder{readers: readers, hints: hints}, nil
}

// Decode returns the text of the first barcode found in img
func (d *Decoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("%w: nil image", domain.ErrInvalidImage)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		if text := result.GetText(); text != "" {
			return text, nil
		}
	}

	return "", domain.ErrNoBarcode
}

// Reset clears any per-session state held by the readers
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, reader := range d.readers {
		reader.Reset()
	}
}

// FallbackDecoder stands in when the real decoder cannot be used.
// It always reports domain.ExampleBarcode.
type FallbackDecoder struct{}

// Decode ignores the frame
func (FallbackDecoder) Decode(image.Image) (string, error) {
	return domain.ExampleBarcode, nil
}

// Reset is a no-op
func (FallbackDecoder) Reset() {}
