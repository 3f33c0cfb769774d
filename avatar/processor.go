package avatar

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// DefaultMaxBytes caps uploads at 5MB.
const DefaultMaxBytes = 5 << 20

// DefaultQuality is the JPEG quality used for the canonical image and variants.
const DefaultQuality = 85

// CanonicalSize is the square edge of the canonical stored image.
const CanonicalSize = 512

// DefaultVariants maps variant names to their square pixel size.
var DefaultVariants = map[string]int{
	"thumbnail": 64,
	"small":     128,
	"medium":    256,
	"large":     512,
}

var (
	// ErrImageTooLarge indicates the upload exceeds the configured byte cap.
	ErrImageTooLarge = errors.New("avatar: image too large: exceeds size limit")
	// ErrUnsupportedFormat indicates the bytes are not jpeg, png, or webp.
	ErrUnsupportedFormat = errors.New("avatar: unsupported image format")
	// ErrDecodeFailed indicates the bytes could not be decoded as an image.
	ErrDecodeFailed = errors.New("avatar: image decode failed")
)

// ProcessorConfig tunes validation and variant generation.
type ProcessorConfig struct {
	MaxBytes int64
	Quality  int
	Variants map[string]int
}

// Processor validates raw uploads and produces the canonical image plus the
// resized variants. Format detection trusts the file bytes, never the
// declared content type.
type Processor struct {
	maxBytes int64
	quality  int
	variants map[string]int
}

// ProcessedImage is the output of one processing pass. Every payload is JPEG
// encoded; the canonical image and all variants are square center crops.
type ProcessedImage struct {
	Canonical   []byte
	Variants    map[string][]byte
	Width       int
	Height      int
	MimeType    string
	ContentHash string
	SourceBytes int64
}

// NewProcessor constructs a processor, falling back to the package defaults
// for any zero-valued config field.
func NewProcessor(cfg ProcessorConfig) *Processor {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	variants := cfg.Variants
	if len(variants) == 0 {
		variants = DefaultVariants
	}
	return &Processor{
		maxBytes: maxBytes,
		quality:  quality,
		variants: variants,
	}
}

// Process validates the upload and renders the canonical image and variants.
// Validation runs before any image work so oversized or malformed uploads
// never reach the decoder's expensive paths.
func (p *Processor) Process(data []byte) (*ProcessedImage, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, ErrImageTooLarge
	}
	if _, err := detectFormat(data); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	canonical := imaging.Fill(src, CanonicalSize, CanonicalSize, imaging.Center, imaging.Lanczos)
	canonicalBytes, err := encodeJPEG(canonical, p.quality)
	if err != nil {
		return nil, err
	}

	variants := make(map[string][]byte, len(p.variants))
	for name, size := range p.variants {
		resized := imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)
		payload, err := encodeJPEG(resized, p.quality)
		if err != nil {
			return nil, err
		}
		variants[name] = payload
	}

	hash := sha256.Sum256(data)
	bounds := canonical.Bounds()
	return &ProcessedImage{
		Canonical:   canonicalBytes,
		Variants:    variants,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		MimeType:    "image/jpeg",
		ContentHash: hex.EncodeToString(hash[:]),
		SourceBytes: int64(len(data)),
	}, nil
}

// VariantNames returns the configured variant names.
func (p *Processor) VariantNames() []string {
	names := make([]string, 0, len(p.variants))
	for name := range p.variants {
		names = append(names, name)
	}
	return names
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("avatar: jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs the magic bytes of the allow-listed formats.
func detectFormat(data []byte) (string, error) {
	switch {
	case isJPEG(data):
		return "image/jpeg", nil
	case isPNG(data):
		return "image/png", nil
	case isWEBP(data):
		return "image/webp", nil
	default:
		return "", ErrUnsupportedFormat
	}
}

func isJPEG(head []byte) bool {
	return len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}
