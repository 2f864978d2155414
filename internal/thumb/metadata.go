package thumb

import (
	"image"
	"os"
	"sync"

	serr "xpick/internal/errors"
	log "xpick/internal/log"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var registerParsers sync.Once

// Metadata describes an image file without decoding its pixels
type Metadata struct {
	Width, Height int
	Format        string
	// Camera fields are only present on EXIF-carrying images
	Taken  string
	Camera string
}

// ReadMetadata reads the image dimensions and, where available, the EXIF
// capture time and camera model.
func ReadMetadata(path string) (Metadata, error) {
	var md Metadata

	f, err := os.Open(path)
	if err != nil {
		return md, serr.NewFileError("cannot open image", path, serr.FileAccessDenied, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return md, serr.NewFileError(ErrUnsupported.Error(), path, serr.InvalidOperation, err)
	}
	md.Width, md.Height, md.Format = cfg.Width, cfg.Height, format

	if _, err := f.Seek(0, 0); err != nil {
		return md, nil
	}

	registerParsers.Do(func() { exif.RegisterParsers(mknote.All...) })
	x, err := exif.Decode(f)
	if err != nil {
		log.LogWithFields(log.F("path", path)).Debugf("no EXIF data: %v", err)
		return md, nil
	}
	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		md.Taken, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		md.Camera, _ = tag.StringVal()
	}
	return md, nil
}
