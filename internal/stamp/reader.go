package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

const (
	// DefaultLanguage is the Tesseract language used when none is set.
	DefaultLanguage = "eng"

	// minOCRSide is the shorter side photos are upscaled to before OCR.
	minOCRSide = 800

	contrastBoost = 40
)

// ErrNoImage is returned when there is nothing to read.
var ErrNoImage = errors.New("no image to read")

// Bounds is a word bounding box in the coordinates of the image passed to
// ReadText.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is one recognized word.
type Word struct {
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Reading is the text recognized on a stamp.
type Reading struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Reader runs Tesseract on disc photos. A Reader holds only settings; every
// call creates its own engine client, so it is safe for concurrent use.
type Reader struct {
	language       string
	tessdataPrefix string
}

// Option configures a Reader.
type Option func(*Reader)

// WithLanguage sets the Tesseract language code, e.g. "eng" or "deu".
func WithLanguage(lang string) Option {
	return func(r *Reader) {
		if lang != "" {
			r.language = lang
		}
	}
}

// WithTessdataPrefix points Tesseract at a directory of traineddata files.
func WithTessdataPrefix(dir string) Option {
	return func(r *Reader) {
		r.tessdataPrefix = dir
	}
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{language: DefaultLanguage}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Language returns the configured language code.
func (r *Reader) Language() string {
	return r.language
}

// Preprocess prepares a photo for OCR: contrast boost, grayscale, and an
// upscale so the shorter side is at least 800 pixels.
func Preprocess(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(imaging.AdjustContrast(img, contrastBoost))
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if short := min(w, h); short > 0 && short < minOCRSide {
		scale := float64(minOCRSide) / float64(short)
		out = imaging.Resize(out, int(float64(w)*scale), int(float64(h)*scale), imaging.Lanczos)
	}
	return out
}

// ReadText recognizes the text on img after Preprocess. Word bounds are
// mapped back to img's coordinates.
func (r *Reader) ReadText(img image.Image) (*Reading, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoImage
	}

	prepared := Preprocess(img)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, prepared, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.tessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(r.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	reading := &Reading{Text: strings.TrimSpace(text), Words: []Word{}}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Return just text if boxes fail
		return reading, nil
	}

	sx := float64(img.Bounds().Dx()) / float64(prepared.Bounds().Dx())
	sy := float64(img.Bounds().Dy()) / float64(prepared.Bounds().Dy())
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		reading.Words = append(reading.Words, Word{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X1: int(float64(box.Box.Min.X) * sx),
				Y1: int(float64(box.Box.Min.Y) * sy),
				X2: int(float64(box.Box.Max.X) * sx),
				Y2: int(float64(box.Box.Max.Y) * sy),
			},
		})
	}
	return reading, nil
}

// Version returns the version of the linked Tesseract library.
func Version() string {
	return gosseract.Version()
}
