package photos

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"vgp-backend/internal/checklist"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x += 5 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		w, h, wantW, wantH int
	}{
		{4000, 3000, 1200, 900},
		{3000, 4000, 900, 1200},
		{1200, 1200, 1200, 1200},
		{2400, 2400, 1200, 1200},
		{800, 600, 800, 600},
		{6000, 2, 1200, 1},
		{0, 10, 0, 0},
	}
	for _, tt := range tests {
		w, h := TargetSize(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("TargetSize(%d, %d) = %d x %d, want %d x %d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestCompress_DownscalesToJPEG(t *testing.T) {
	url, err := Compress(bytes.NewReader(encodePNG(t, 2400, 1600)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected prefix %q", url[:30])
	}
	raw, err := DecodeDataURL(url)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1200 || cfg.Height != 800 {
		t.Fatalf("size = %d x %d", cfg.Width, cfg.Height)
	}
}

func TestCompress_RejectsGarbage(t *testing.T) {
	if _, err := Compress(strings.NewReader("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

// pngHeader returns a PNG that declares a w x h grayscale image but carries
// no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := make([]byte, 0, 17)
	chunk = append(chunk, "IHDR"...)
	chunk = binary.BigEndian.AppendUint32(chunk, w)
	chunk = binary.BigEndian.AppendUint32(chunk, h)
	chunk = append(chunk, 8, 0, 0, 0, 0)
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDownscale_RejectsOversizedImage(t *testing.T) {
	_, err := Downscale(bytes.NewReader(pngHeader(12000, 12000)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	// A header within the budget gets past the size check and fails on
	// the missing pixel data instead.
	_, err = Downscale(bytes.NewReader(pngHeader(4000, 3000)))
	if err == nil || errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	if _, err := DecodeDataURL("data:image/jpeg,plain"); err == nil {
		t.Fatal("non-base64 data URL accepted")
	}
}

func TestProcessor_DeliversOncePerCapture(t *testing.T) {
	rec := checklist.NewRecord(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	var results []Result
	attach := Attach(rec)
	p := NewProcessor(context.Background(), 2, func(res Result) {
		results = append(results, res)
		attach(res)
	})

	ctx := context.Background()
	_ = p.Submit(ctx, "visuel-3", encodePNG(t, 300, 200))
	_ = p.Submit(ctx, "", encodePNG(t, 100, 100))
	_ = p.Submit(ctx, "visuel-3", []byte("broken"))
	p.Close()

	if len(results) != 3 {
		t.Fatalf("delivered %d results, want 3", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
	it, _ := rec.Get("visuel-3")
	if len(it.Photos) != 1 || len(rec.Photos) != 1 {
		t.Fatalf("photos attached: item %d general %d", len(it.Photos), len(rec.Photos))
	}
	if it.Photos[0].ID == "" || it.Photos[0].TakenAt.IsZero() {
		t.Fatalf("photo metadata missing: %+v", it.Photos[0])
	}
}
