package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

func (b Bounds) offset(dx, dy int) Bounds {
	return Bounds{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// TextRegion is a recognised word with its location.
type TextRegion struct {
	Text string `json:"text"`
	// Confidence is Tesseract's certainty scaled to 0..1.
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Result is the text read from a scan.
type Result struct {
	// FullText keeps Tesseract's line breaks.
	FullText string `json:"full_text"`
	// Regions holds the words in reading order. It may be empty even when
	// FullText is not.
	Regions  []TextRegion `json:"regions"`
	Language string       `json:"language"`
}

// Block is a paragraph-level text area found without reading it.
type Block struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
}

// Recognizer runs Tesseract over raster buffers.
//
// A Recognizer is safe for concurrent use; calls are serialised because
// each one drives a native Tesseract instance.
type Recognizer struct {
	language string
	log      *logrus.Entry
	mu       sync.Mutex
}

// NewRecognizer creates a recognizer for language. An empty language means
// DefaultLanguage; a nil logger discards output.
func NewRecognizer(language string, log *logrus.Entry) *Recognizer {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	if log == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		log = logrus.NewEntry(silent)
	}
	return &Recognizer{
		language: language,
		log:      log.WithField("component", "ocr"),
	}
}

// Language returns the configured language.
func (r *Recognizer) Language() string {
	return r.language
}

// Recognize reads all text from buf. An empty language uses the
// recognizer's own.
func (r *Recognizer) Recognize(buf *raster.Buffer, language string) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	data, err := pngBytes(buf.Image())
	if err != nil {
		return nil, err
	}
	return r.recognize(data, language)
}

// RecognizeRegion reads text inside region of buf. Region is clipped to the
// image; word bounds are reported in buf's coordinates.
func (r *Recognizer) RecognizeRegion(buf *raster.Buffer, region Bounds, language string) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	rect := image.Rect(region.X1, region.Y1, region.X2, region.Y2).
		Intersect(image.Rect(0, 0, buf.Width, buf.Height))
	if rect.Empty() {
		return nil, fmt.Errorf("region %+v lies outside the %dx%d image", region, buf.Width, buf.Height)
	}

	data, err := pngBytes(imaging.Crop(buf.Image(), rect))
	if err != nil {
		return nil, err
	}
	result, err := r.recognize(data, language)
	if err != nil {
		return nil, err
	}
	for i := range result.Regions {
		result.Regions[i].Bounds = result.Regions[i].Bounds.offset(rect.Min.X, rect.Min.Y)
	}
	return result, nil
}

// DetectBlocks finds text blocks without reading them, keeping those with
// confidence of at least minConfidence (0..1).
func (r *Recognizer) DetectBlocks(buf *raster.Buffer, minConfidence float64) ([]Block, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	data, err := pngBytes(buf.Image())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to get text blocks: %w", err)
	}

	blocks := make([]Block, 0, len(boxes))
	for _, box := range boxes {
		confidence := box.Confidence / 100.0
		if confidence < minConfidence {
			continue
		}
		blocks = append(blocks, Block{Bounds: boundsOf(box.Box), Confidence: confidence})
	}
	return blocks, nil
}

func (r *Recognizer) recognize(data []byte, language string) (*Result, error) {
	if strings.TrimSpace(language) == "" {
		language = r.language
	}
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	result := &Result{FullText: text, Regions: []TextRegion{}, Language: language}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		r.log.WithError(err).Warn("Word boxes unavailable, returning text only")
		return result, nil
	}
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		result.Regions = append(result.Regions, TextRegion{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds:     boundsOf(box.Box),
		})
	}

	r.log.WithFields(logrus.Fields{
		"language": language,
		"words":    len(result.Regions),
		"elapsed":  time.Since(start),
	}).Debug("OCR complete")
	return result, nil
}

func pngBytes(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := imaging.Encode(&b, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return b.Bytes(), nil
}
