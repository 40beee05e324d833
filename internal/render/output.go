package render

import (
	"image"
	"image/png"
	"os"
)

// Output receives composited frames. Implementations must be cheap enough
// to call from the dispatch loop, or buffer internally.
type Output interface {
	Publish(frame *image.RGBA) error
}

// FileOutput writes each frame as a PNG to a fixed path, replacing the
// previous one atomically via rename. Suitable for framebuffer bridges and
// kiosk shells that watch a file.
type FileOutput struct {
	Path string
}

// Publish writes the frame.
func (o *FileOutput) Publish(frame *image.RGBA) error {
	tmp := o.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, o.Path)
}

// NullOutput discards frames. Used when no output path is configured and
// in tests.
type NullOutput struct{}

// Publish discards the frame.
func (NullOutput) Publish(*image.RGBA) error { return nil }
