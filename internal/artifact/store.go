package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"inspiration-batch/internal/fsutil"
)

const (
	Ext           = ".png"
	verifyWorkers = 8
)

var (
	ErrEmptyImage  = errors.New("empty image data")
	ErrInvalidSlug = errors.New("invalid slug")
)

// ValidSlug reports whether slug can be used as a file name stem inside the
// store directory.
func ValidSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.ContainsRune(slug, 0)
}

type Options struct {
	Dir string
	// Verify makes Exists and List require a decodable PNG header instead of
	// plain file existence.
	Verify bool
	Logger *slog.Logger
}

// Store is a directory of <slug>.png files plus the run ledgers next to them.
type Store struct {
	dir    string
	verify bool
	logger *slog.Logger
}

func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{
		dir:    filepath.Clean(opts.Dir),
		verify: opts.Verify,
		logger: logger,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(slug string) string {
	return filepath.Join(s.dir, slug+Ext)
}

// Exists reports whether the artifact for slug is already on disk.
func (s *Store) Exists(slug string) bool {
	path := s.Path(slug)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if !s.verify {
		return true
	}
	if err := verifyPNG(path); err != nil {
		s.logger.Warn("artifact failed verification", "path", path, "err", err)
		return false
	}
	return true
}

// WriteImage stores image bytes as <slug>.png. Payloads in other formats are
// re-encoded to PNG so the content matches the file name.
func (s *Store) WriteImage(slug string, data []byte, mimeType string) (string, error) {
	if !ValidSlug(slug) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	encoded, err := toPNG(data, mimeType)
	if err != nil {
		return "", err
	}

	path := s.Path(slug)
	if err := s.write(path, encoded); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes a named file into the store directory, creating it on demand.
func (s *Store) WriteFile(name string, data []byte) error {
	if !ValidSlug(name) {
		return fmt.Errorf("%w: file name %q", ErrInvalidSlug, name)
	}
	return s.write(filepath.Join(s.dir, name), data)
}

func (s *Store) write(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// List maps artifact stems to their paths. A missing directory yields an
// empty map.
func (s *Store) List(ctx context.Context) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	keep := make([]bool, len(matches))
	for i := range keep {
		keep[i] = true
	}

	if s.verify {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(verifyWorkers)
		for i, path := range matches {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				if err := verifyPNG(path); err != nil {
					s.logger.Warn("artifact failed verification", "path", path, "err", err)
					keep[i] = false
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]string, len(matches))
	for i, path := range matches {
		if !keep[i] {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), Ext)
		out[stem] = path
	}
	return out, nil
}

func toPNG(data []byte, mimeType string) ([]byte, error) {
	if isPNG(data) {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", mimeType, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s as png: %w", format, err)
	}
	return buf.Bytes(), nil
}

func isPNG(data []byte) bool {
	return http.DetectContentType(data) == "image/png"
}

func verifyPNG(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("zero-sized image %dx%d", cfg.Width, cfg.Height)
	}
	return nil
}
