// Package images lists and loads image files for backgrounds and icons.
package images

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// DirSource serves images from a directory, scaled to a target size.
type DirSource struct {
	dir           string
	width, height int
}

// NewDirSource creates a source for dir, scaling loads to width x height.
// The directory is created if missing so users can drop images in later.
func NewDirSource(dir string, width, height int) *DirSource {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("Could not create image directory")
	}
	return &DirSource{dir: dir, width: width, height: height}
}

// List returns the available image file names, sorted. An unreadable or
// empty directory yields an empty list.
func (s *DirSource) List() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warn().Str("dir", s.dir).Err(err).Msg("Could not read image directory")
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Load reads and scales one image to the source's target size.
func (s *DirSource) Load(handle string) (image.Image, error) {
	return LoadScaled(filepath.Join(s.dir, handle), s.width, s.height)
}

// LoadScaled decodes the image at path and scales it to width x height.
func LoadScaled(path string, width, height int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
	}

	if b := src.Bounds(); b.Dx() == width && b.Dy() == height {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}
