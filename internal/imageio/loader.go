package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
	"golang.org/x/sync/singleflight"

	"github.com/ironsheep/docscan-mcp/internal/raster"
)

// ErrUnsupported is returned for files that are neither a decodable image
// nor a PDF.
var ErrUnsupported = errors.New("unsupported file type: expected an image or PDF")

// DefaultPDFScale renders PDF pages at 1.5 times their 72 dpi size.
const DefaultPDFScale = 1.5

var pdfMagic = []byte("%PDF-")

// Source describes a decoded file.
type Source struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	// Page is the rendered page for PDFs, 1-based. Zero for images.
	Page int `json:"page,omitempty"`
	// Pages is the page count for PDFs.
	Pages  int `json:"pages,omitempty"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type entry struct {
	buf *raster.Buffer
	src Source
}

type cacheKey struct {
	path string
	page int
}

// Loader decodes files into 4-channel raster buffers and caches the results.
//
// Loader is safe for concurrent use. The cache holds at most the configured
// number of sources and drops the oldest first; a capacity of zero disables
// it. Cached entries are not revalidated against the file on disk; call
// Evict or Clear after a file changes.
type Loader struct {
	pdfScale float64
	group    singleflight.Group

	mu       sync.Mutex
	capacity int
	entries  map[cacheKey]entry
	order    []cacheKey
}

// NewLoader creates a loader. A non-positive pdfScale uses DefaultPDFScale.
func NewLoader(pdfScale float64, cacheSize int) *Loader {
	if pdfScale <= 0 {
		pdfScale = DefaultPDFScale
	}
	if cacheSize < 0 {
		cacheSize = 0
	}
	return &Loader{
		pdfScale: pdfScale,
		capacity: cacheSize,
		entries:  make(map[cacheKey]entry),
	}
}

// Load decodes path. page selects the PDF page (1-based, 0 means the first)
// and is ignored for images, which are cached under the page asked for. The returned buffer belongs to the caller.
// Concurrent loads of the same page share one decode.
func (l *Loader) Load(path string, page int) (*raster.Buffer, Source, error) {
	if page < 1 {
		page = 1
	}
	key := cacheKey{path: path, page: page}

	l.mu.Lock()
	if e, ok := l.entries[key]; ok {
		l.mu.Unlock()
		return e.buf.Clone(), e.src, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do(fmt.Sprintf("%d:%s", page, path), func() (interface{}, error) {
		return l.decode(key)
	})
	if err != nil {
		return nil, Source{}, err
	}
	e := v.(entry)
	return e.buf.Clone(), e.src, nil
}

func (l *Loader) decode(key cacheKey) (entry, error) {
	path, page := key.path, key.page
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, fmt.Errorf("failed to open source: %w", err)
	}

	var (
		img image.Image
		src = Source{Path: path}
	)
	if bytes.HasPrefix(data, pdfMagic) {
		img, src.Pages, err = l.renderPDF(data, page)
		src.Format, src.Page = "pdf", page
	} else {
		img, src.Format, err = decodeImage(data)
	}
	if err != nil {
		return entry{}, err
	}

	buf, err := raster.FromImage(img)
	if err != nil {
		return entry{}, fmt.Errorf("failed to convert source: %w", err)
	}
	src.Width, src.Height = buf.Width, buf.Height

	e := entry{buf: buf, src: src}
	l.store(key, e)
	return e, nil
}

func decodeImage(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupported
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// renderPDF rasterizes one page at the loader's scale.
func (l *Loader) renderPDF(data []byte, page int) (image.Image, int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if page > pages {
		return nil, pages, fmt.Errorf("page %d out of range (document has %d)", page, pages)
	}
	img, err := doc.ImageDPI(page-1, 72*l.pdfScale)
	if err != nil {
		return nil, pages, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, pages, nil
}

func (l *Loader) store(key cacheKey, e entry) {
	if l.capacity == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; ok {
		return
	}
	for len(l.order) >= l.capacity {
		delete(l.entries, l.order[0])
		l.order = l.order[1:]
	}
	l.entries[key] = e
	l.order = append(l.order, key)
}

// Evict drops every cached page of path.
func (l *Loader) Evict(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.order[:0]
	for _, k := range l.order {
		if k.path == path {
			delete(l.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	l.order = kept
}

// Clear empties the cache.
func (l *Loader) Clear() {
	l.mu.Lock()
	l.entries = make(map[cacheKey]entry)
	l.order = nil
	l.mu.Unlock()
}

// Cached returns the number of cached sources.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
