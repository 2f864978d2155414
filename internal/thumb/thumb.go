// Package thumb decodes, scales and caches image thumbnails for the picker
// views. A single Cache is created by the top-level command and shared by
// every directory model.
package thumb

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	serr "xpick/internal/errors"
	log "xpick/internal/log"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	// DefaultEntries is the number of thumbnails kept when no size is given
	DefaultEntries = 256
	// DefaultEdge is the longest thumbnail edge in pixels
	DefaultEdge = 64

	maxDecodeBytes = 256 * 1024 * 1024
)

// ErrUnsupported is returned for formats no decoder is registered for
var ErrUnsupported = serr.New("unsupported image format")

// Cache is a bounded LRU of scaled thumbnails keyed by path and mtime.
// It is safe for concurrent use.
type Cache struct {
	lru  *lru.Cache[string, image.Image]
	edge uint
}

// NewCache creates a cache holding at most entries thumbnails whose longest
// edge is edge pixels. Non-positive arguments fall back to the defaults.
func NewCache(entries, edge int) (*Cache, error) {
	if entries <= 0 {
		entries = DefaultEntries
	}
	if edge <= 0 {
		edge = DefaultEdge
	}
	c, err := lru.New[string, image.Image](entries)
	if err != nil {
		return nil, serr.Wrap(err, "failed to create thumbnail cache")
	}
	return &Cache{lru: c, edge: uint(edge)}, nil
}

// Len returns the number of cached thumbnails
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every cached thumbnail
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Handle returns a lazy handle for an image file. Nothing is read until Load.
func (c *Cache) Handle(path string) *Handle {
	return &Handle{cache: c, path: path}
}

// IndexHandle returns a lazy handle for an index file. Its thumbnail is the
// first image the index lists.
func (c *Cache) IndexHandle(path string) *Handle {
	return &Handle{cache: c, path: path, index: true}
}

// Handle is a deferred thumbnail for one path
type Handle struct {
	cache *Cache
	path  string
	index bool
}

// Path returns the file the handle was created for
func (h *Handle) Path() string {
	return h.path
}

// Source returns the image file the thumbnail is decoded from. For index
// files this is the first listed image.
func (h *Handle) Source() (string, error) {
	if !h.index {
		return h.path, nil
	}
	return FirstIndexedImage(h.path)
}

// Load decodes and scales the thumbnail, consulting the cache first
func (h *Handle) Load() (image.Image, error) {
	src, err := h.Source()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("thumbnail source missing", src, serr.FileNotFound, err)
		}
		return nil, serr.NewFileError("cannot stat thumbnail source", src, serr.FileAccessDenied, err)
	}
	key := fmt.Sprintf("%s@%d", src, info.ModTime().UnixNano())

	if img, ok := h.cache.lru.Get(key); ok {
		return img, nil
	}

	img, err := decode(src)
	if err != nil {
		return nil, err
	}
	thumb := resize.Thumbnail(h.cache.edge, h.cache.edge, img, resize.Lanczos3)
	h.cache.lru.Add(key, thumb)
	log.LogWithFields(log.F("path", src)).Debug("thumbnail cached")
	return thumb, nil
}

func decode(path string) (img image.Image, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, serr.NewFileError("cannot open image", path, serr.FileAccessDenied, err)
	}
	defer file.Close()

	r := io.LimitReader(file, maxDecodeBytes)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	case ".png":
		img, err = png.Decode(r)
	case ".gif":
		img, err = gif.Decode(r)
	case ".bmp":
		img, err = bmp.Decode(r)
	case ".tif", ".tiff":
		img, err = tiff.Decode(r)
	case ".webp":
		img, err = webp.Decode(r)
	default:
		img, _, err = image.Decode(r)
		if serr.Is(err, image.ErrFormat) {
			return nil, serr.NewFileError(ErrUnsupported.Error(), path, serr.InvalidOperation, ErrUnsupported)
		}
	}
	if err != nil {
		return nil, serr.NewFileError("cannot decode image", path, serr.InvalidOperation, err)
	}

	// Resampling works on RGBA; paletted sources are converted first.
	if _, ok := img.(*image.Paletted); ok {
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		img = rgba
	}
	return img, nil
}
