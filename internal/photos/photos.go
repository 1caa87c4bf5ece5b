package photos

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoding

	"vgp-backend/internal/checklist"
)

const (
	// MaxDimension bounds the long edge of a stored photo
	MaxDimension = 1200
	// Quality is the JPEG quality of stored photos
	Quality = 70
	// MaxUploadBytes caps a single capture before decoding
	MaxUploadBytes = 20 << 20
	// MaxPixels caps the decoded size of a capture
	MaxPixels = 50_000_000
)

var (
	ErrEmptyImage = errors.New("empty image")
	ErrTooLarge   = errors.New("image too large")
)

// TargetSize returns the downscaled size of a w x h image. The aspect ratio
// is kept and images already within the bound are left as is.
func TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w >= h && w > MaxDimension {
		return MaxDimension, max(1, h*MaxDimension/w)
	}
	if h > w && h > MaxDimension {
		return max(1, w*MaxDimension/h), MaxDimension
	}
	return w, h
}

// Downscale decodes an image and returns it resized to TargetSize
func Downscale(r io.Reader) (image.Image, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	// The header is checked before the pixels are allocated
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %d x %d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	w, h := TargetSize(bounds.Dx(), bounds.Dy())
	if w == bounds.Dx() && h == bounds.Dy() && format == "jpeg" {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// Transparent PNG areas become white, as on the browser canvas export.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

// Compress downscales an image and encodes it as a JPEG data URL
func Compress(r io.Reader) (string, error) {
	img, err := Downscale(r)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL returns the raw bytes of a base64 data URL
func DecodeDataURL(s string) ([]byte, error) {
	prefix, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(prefix, "data:") || !strings.HasSuffix(prefix, ";base64") {
		return nil, errors.New("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// Result is delivered once per capture
type Result struct {
	Target string
	Photo  checklist.PhotoRef
	Err    error
}

// Processor compresses captures off the caller's goroutine. Results are
// delivered one at a time on a single goroutine, so the callback may append
// to a record without locking.
type Processor struct {
	jobs    chan job
	results chan Result
	done    chan struct{}
	now     func() time.Time
}

type job struct {
	target string
	data   []byte
}

// NewProcessor starts workers compressing captures; deliver is called once
// per Submit.
func NewProcessor(ctx context.Context, workers int, deliver func(Result)) *Processor {
	if workers < 1 {
		workers = 1
	}
	p := &Processor{
		jobs:    make(chan job, workers*4),
		results: make(chan Result, workers*4),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range p.jobs {
				res := Result{Target: j.target}
				data, err := Compress(bytes.NewReader(j.data))
				if err != nil {
					res.Err = err
				} else {
					res.Photo = checklist.PhotoRef{
						ID:      uuid.New().String(),
						Data:    data,
						TakenAt: p.now(),
					}
				}
				select {
				case p.results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(p.results)
	}()

	go func() {
		defer close(p.done)
		for res := range p.results {
			if res.Err != nil {
				log.Printf("⚠️  Photo for %q could not be processed: %v", res.Target, res.Err)
			}
			deliver(res)
		}
	}()

	return p
}

// Submit queues a capture for target (an item id, or "" for the general
// photos). It blocks while the queue is full.
func (p *Processor) Submit(ctx context.Context, target string, data []byte) error {
	select {
	case p.jobs <- job{target: target, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting captures and waits for pending deliveries
func (p *Processor) Close() {
	close(p.jobs)
	<-p.done
}

// Attach returns a deliver callback that appends each processed photo to rec
func Attach(rec *checklist.Record) func(Result) {
	return func(res Result) {
		if res.Err != nil {
			return
		}
		if err := rec.AttachPhoto(res.Target, res.Photo); err != nil {
			log.Printf("⚠️  Photo dropped: %v", err)
		}
	}
}
