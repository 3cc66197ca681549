package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Load failures. The pipeline maps every one of them to its fallback
// outputs; callers can tell them apart with errors.Is.
var (
	// ErrDecode means the bytes are not an image in a supported format.
	ErrDecode = errors.New("image could not be decoded")

	// ErrAccessDenied means the pixels exist but may not be read, e.g. the
	// server refused the request or answered with something that is not an
	// image.
	ErrAccessDenied = errors.New("image pixels are not accessible")

	// ErrDegenerate means the image decoded to zero width or height.
	ErrDegenerate = errors.New("image has no pixels")

	// ErrUnsupportedSource means the source reference has an unknown form.
	ErrUnsupportedSource = errors.New("unsupported image source")
)

// Defaults for remote sources.
const (
	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxBytes     = 20 << 20
	DefaultUserAgent    = "disc-photo-mcp/1.0"
)

// SourceKind identifies where the bytes of a Source come from.
type SourceKind int

const (
	SourcePath SourceKind = iota
	SourceURL
	SourceDataURI
	SourceBytes
)

// String returns the lower-case name of the kind.
func (k SourceKind) String() string {
	switch k {
	case SourcePath:
		return "path"
	case SourceURL:
		return "url"
	case SourceDataURI:
		return "data_uri"
	case SourceBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Source is a user-supplied photo: a local file, an uploaded payload, a
// data URI or a remote URL.
type Source struct {
	Kind SourceKind

	// Value holds the path, URL or data URI text. Empty for SourceBytes.
	Value string

	// Data holds the raw payload for SourceBytes.
	Data []byte

	// MimeType is the declared type of Data, if known.
	MimeType string
}

// ParseSource classifies a reference string. http and https URLs become
// SourceURL, "data:" strings SourceDataURI and everything else SourcePath.
func ParseSource(ref string) Source {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Source{Kind: SourceURL, Value: ref}
	case strings.HasPrefix(lower, "data:"):
		return Source{Kind: SourceDataURI, Value: ref}
	default:
		return Source{Kind: SourcePath, Value: ref}
	}
}

// BytesSource wraps an uploaded payload.
func BytesSource(data []byte, mimeType string) Source {
	return Source{Kind: SourceBytes, Data: data, MimeType: mimeType}
}

// Ref returns the reference a caller would store if nothing can be read:
// the URL, data URI or path as given, or a data URI of the payload.
func (s Source) Ref() string {
	if s.Kind == SourceBytes {
		return EncodeDataURI(sniffMime(s.Data, s.MimeType), s.Data)
	}
	return s.Value
}

// Loaded is a decoded source.
type Loaded struct {
	Image image.Image

	// Ref is the original, uncropped reference to hand back on fallback:
	// the URL for remote sources, otherwise a data URI of the raw bytes.
	Ref string

	// Format is the decoder name reported by image.Decode ("jpeg", "png", ...).
	Format string

	// Orientation is the EXIF orientation that was applied (1 when none).
	Orientation int
}

// LoadOptions configures LoadSource. The zero value uses the defaults.
type LoadOptions struct {
	Client    *http.Client
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string

	// Cache, when set, memoizes path sources.
	Cache *ImageCache
}

// LoadSource reads and decodes a source.
//
// Remote fetches honor ctx. EXIF orientation is applied so the pixels are
// upright. A loaded image with no pixels returns ErrDegenerate alongside
// the Loaded value so the caller still has the reference.
func LoadSource(ctx context.Context, src Source, opts LoadOptions) (*Loaded, error) {
	switch src.Kind {
	case SourcePath:
		if opts.Cache != nil {
			return opts.Cache.Load(src.Value)
		}
		return loadFile(src.Value)
	case SourceURL:
		data, err := fetch(ctx, src.Value, opts)
		if err != nil {
			return nil, err
		}
		loaded, err := decodeBytes(data)
		if loaded != nil {
			loaded.Ref = src.Value
		}
		return loaded, err
	case SourceDataURI:
		data, _, err := DecodeDataURI(src.Value)
		if err != nil {
			return nil, err
		}
		loaded, err := decodeBytes(data)
		if loaded != nil {
			loaded.Ref = src.Value
		}
		return loaded, err
	case SourceBytes:
		loaded, err := decodeBytes(src.Data)
		if loaded != nil {
			loaded.Ref = src.Ref()
		}
		return loaded, err
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedSource, src.Kind)
	}
}

func loadFile(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	loaded, err := decodeBytes(data)
	if loaded != nil {
		loaded.Ref = EncodeDataURI(sniffMime(data, ""), data)
	}
	return loaded, err
}

// decodeBytes decodes data with the registered decoders, falling back to
// the libwebp decoder, and applies the EXIF orientation.
func decodeBytes(data []byte) (*Loaded, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		wimg, werr := webp.Decode(bytes.NewReader(data))
		if werr != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		img, format = wimg, "webp"
	}

	orientation := readOrientation(data)
	loaded := &Loaded{
		Image:       applyOrientation(img, orientation),
		Format:      format,
		Orientation: orientation,
	}
	if loaded.Image.Bounds().Empty() {
		return loaded, ErrDegenerate
	}
	return loaded, nil
}

// fetch downloads a remote image.
func fetch(ctx context.Context, rawURL string, opts LoadOptions) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "image/*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", ErrAccessDenied, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !imageContentType(contentType) {
		return nil, fmt.Errorf("%w: Content-Type %s", ErrAccessDenied, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// imageContentType accepts image/* and the types servers use when they do
// not know better. An absent header is accepted.
func imageContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/") || mt == "application/octet-stream" || mt == "binary/octet-stream"
}

// DecodeDataURI returns the payload and media type of a data URI.
// Both base64 and percent-encoded payloads are supported.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data URI", ErrDecode)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: data URI has no payload", ErrDecode)
	}

	isBase64 := false
	mediaType := ""
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0:
			mediaType = part
		case strings.EqualFold(part, "base64"):
			isBase64 = true
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return data, mediaType, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return []byte(text), mediaType, nil
}

// sniffMime returns declared if set, otherwise the detected content type.
func sniffMime(data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}

// ImageCache provides thread-safe caching of decoded local files.
//
// Entries are keyed by path and remember the file's modification time and
// size; a file changed on disk is decoded again on the next Load. The MCP
// server reuses one cache for all tool calls.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cacheEntry
}

type cacheEntry struct {
	loaded  *Loaded
	modTime time.Time
	size    int64
}

func (e cacheEntry) fresh(info os.FileInfo) bool {
	return e.modTime.Equal(info.ModTime()) && e.size == info.Size()
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cacheEntry),
	}
}

// Load retrieves a decoded file from the cache or reads it from disk.
// Degenerate images are returned but not cached.
func (c *ImageCache) Load(path string) (*Loaded, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.images[path]
	c.mu.RUnlock()
	if ok && entry.fresh(info) {
		return entry.loaded, nil
	}

	loaded, err := loadFile(path)
	if err != nil {
		c.Evict(path)
		return loaded, err
	}

	c.mu.Lock()
	c.images[path] = cacheEntry{loaded: loaded, modTime: info.ModTime(), size: info.Size()}
	c.mu.Unlock()

	return loaded, nil
}

// Len returns the number of cached entries.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
