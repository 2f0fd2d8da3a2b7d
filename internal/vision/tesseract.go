package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	domainerrors "github.com/Tomlord1122/smart-todo/internal/errors"
)

const (
	charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,!?-"
	minConfidence = 30
)

var (
	// ErrOCRNotReady is returned when ExtractText is called before Init or after Close.
	ErrOCRNotReady = errors.New("ocr engine not initialized")

	ErrLowConfidence = domainerrors.Validation("The image quality is too low for accurate text recognition. Try with better lighting or clearer handwriting.")
)

// runner executes the OCR binary. Swapped in tests.
type runner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Tesseract runs the local tesseract binary. It must be initialized with
// Init before use and released with Close.
type Tesseract struct {
	path string
	log  *slog.Logger
	run  runner

	mu    sync.RWMutex
	ready bool
}

// NewTesseract returns an OCR client for the binary at path.
func NewTesseract(path string, log *slog.Logger) *Tesseract {
	return &Tesseract{path: path, log: log, run: execRunner}
}

// Init resolves the binary and checks that it runs.
func (t *Tesseract) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return nil
	}

	if t.run == nil {
		t.run = execRunner
	}
	if resolved, err := exec.LookPath(t.path); err == nil {
		t.path = resolved
	}
	out, err := t.run(ctx, nil, t.path, "--version")
	if err != nil {
		return fmt.Errorf("tesseract unavailable: %w", err)
	}
	version, _, _ := strings.Cut(string(out), "\n")
	t.log.Info("ocr engine ready", "path", t.path, "version", strings.TrimSpace(version))
	t.ready = true
	return nil
}

// Close releases the client. Further calls to ExtractText fail.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = false
	return nil
}

// ExtractText binarizes the image, runs OCR and rejects results whose mean
// word confidence is below 30.
func (t *Tesseract) ExtractText(ctx context.Context, img Image) (string, error) {
	t.mu.RLock()
	ready := t.ready
	t.mu.RUnlock()
	if !ready {
		return "", ErrOCRNotReady
	}

	processed, err := Binarize(img.Data)
	if err != nil {
		return "", domainerrors.Validation("Invalid image format. Please use JPG, PNG, GIF, or WebP images.").WithCause(err)
	}

	out, err := t.run(ctx, processed, t.path,
		"stdin", "stdout",
		"--psm", "6",
		"-c", "tessedit_char_whitelist="+charWhitelist,
		"-c", "preserve_interword_spaces=1",
		"tsv",
	)
	if err != nil {
		return "", domainerrors.Unavailable("Failed to extract text from image").WithCause(err)
	}

	text, confidence := parseTSV(out)
	t.log.Debug("ocr finished", "confidence", confidence)
	if confidence < minConfidence {
		return "", ErrLowConfidence
	}
	return text, nil
}

// parseTSV rebuilds line-broken text from tesseract's TSV output and
// returns it with the mean confidence over recognized words.
func parseTSV(out []byte) (string, float64) {
	type lineKey struct{ block, par, line string }

	var (
		lines   []string
		current lineKey
		words   []string
		sum     float64
		count   int
	)
	flush := func() {
		if len(words) > 0 {
			lines = append(lines, strings.Join(words, " "))
			words = nil
		}
	}

	for i, row := range strings.Split(string(out), "\n") {
		if i == 0 {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		word := strings.TrimSpace(cols[11])
		if err != nil || conf < 0 || word == "" {
			continue
		}

		key := lineKey{cols[2], cols[3], cols[4]}
		if key != current {
			flush()
			current = key
		}
		words = append(words, word)
		sum += conf
		count++
	}
	flush()

	if count == 0 {
		return "", 0
	}
	return strings.Join(lines, "\n"), sum / float64(count)
}
