package browser

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions lists the raster formats and the scientific image formats
// recognized as micrographs
var imageExtensions = map[string]bool{
	// raster
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
	// scientific
	".spi": true, ".xmp": true, ".vol": true, ".stk": true,
	".mrc": true, ".mrcs": true, ".map": true, ".ser": true,
	".dm3": true, ".img": true, ".hed": true, ".raw": true,
	".inf": true, ".em": true, ".pif": true, ".psd": true,
}

// indexExtensions lists the selection and metadata files whose thumbnail is
// the first image they reference
var indexExtensions = map[string]bool{
	".sel": true,
	".xmd": true,
}

// IsImageExt reports whether path has a recognized image extension
func IsImageExt(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsIndexExt reports whether path has a recognized index-file extension
func IsIndexExt(path string) bool {
	return indexExtensions[strings.ToLower(filepath.Ext(path))]
}

// Classify assigns a kind to a directory entry. The first matching rule
// wins: directory, image extension, sniffed image content, index extension,
// generic file. Sniffing reads the first 512 bytes and is skipped when
// sniff is false.
func Classify(path string, isDir bool, sniff bool) Kind {
	switch {
	case isDir:
		return Folder
	case IsImageExt(path):
		return Image
	case sniff && sniffImage(path):
		return Image
	case IsIndexExt(path):
		return Index
	default:
		return File
	}
}

func sniffImage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(buf[:n]), "image/")
}
