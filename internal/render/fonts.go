package render

import (
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSet loads one TTF and hands out faces by size, caching them. When no
// font file is available it degrades to the fixed basicfont face so text
// still renders.
type FontSet struct {
	ttf   *truetype.Font
	faces map[float64]font.Face
}

// LoadFonts parses the TTF at path. A missing or unparsable font is not
// fatal: the set falls back to the built-in bitmap face.
func LoadFonts(path string) *FontSet {
	fs := &FontSet{faces: make(map[float64]font.Face)}

	if path == "" {
		return fs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("Font file not found, using built-in face")
		return fs
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("Failed to parse font, using built-in face")
		return fs
	}
	fs.ttf = ttf
	return fs
}

// Face returns a cached face for the given point size.
func (fs *FontSet) Face(size float64) font.Face {
	if fs.ttf == nil {
		return basicfont.Face7x13
	}
	if f, ok := fs.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(fs.ttf, &truetype.Options{Size: size})
	fs.faces[size] = f
	return f
}
