package render

import (
	"image/color"
	"testing"
)

func TestFillPaletteClampsToLastEntry(t *testing.T) {
	palette := []color.RGBA{{R: 1, A: 255}, {G: 2, A: 255}}
	buf := make([]byte, 3*4)
	FillPalette(buf, []uint8{0, 1, 9}, palette)
	if buf[0] != 1 || buf[5] != 2 || buf[9] != 2 {
		t.Fatalf("unexpected pixels %v", buf)
	}
}

func TestFillPaletteEmptyClears(t *testing.T) {
	buf := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	FillPalette(buf, []uint8{3, 4}, nil)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not cleared: %d", i, b)
		}
	}
}

func TestTintWeights(t *testing.T) {
	buf := []byte{0, 0, 0, 255, 100, 100, 100, 255}
	Tint(buf, []float32{1, 0}, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	if buf[0] != 200 || buf[1] != 100 || buf[2] != 50 {
		t.Fatalf("full weight should replace the color, got %v", buf[:4])
	}
	if buf[4] != 100 {
		t.Fatalf("zero weight should leave the pixel alone, got %v", buf[4:])
	}
}
