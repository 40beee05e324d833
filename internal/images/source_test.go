package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource_List(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewDirSource(dir, 4, 4)
	got := s.List()
	if len(got) != 2 || got[0] != "a.png" || got[1] != "b.png" {
		t.Errorf("List = %v, want sorted image files only", got)
	}
}

func TestDirSource_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backgrounds")
	s := NewDirSource(dir, 4, 4)

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("fresh directory listed %v", got)
	}
}

func TestDirSource_LoadScales(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "big.png"), 16, 16)

	s := NewDirSource(dir, 4, 4)
	img, err := s.Load("big.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("loaded size = %dx%d, want 4x4", b.Dx(), b.Dy())
	}
}

func TestLoadScaled_ExactSizePassthrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exact.png")
	writePNG(t, path, 4, 4)

	img, err := LoadScaled(path, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestLoadScaled_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadScaled(filepath.Join(dir, "missing.png"), 4, 4); err == nil {
		t.Error("missing file must error")
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScaled(bad, 4, 4); err == nil {
		t.Error("undecodable file must error")
	}
}
