package imageio

import (
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

const DefaultFormat = "png"

// FileMode is applied to every file written by WriteFile.
const FileMode os.FileMode = 0o644

var extFormats = map[string]string{
	".png":  "png",
	".gif":  "gif",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
}

// Formats lists the accepted output format names.
var Formats = []string{"png", "gif", "jpeg", "bmp", "tiff"}

// NormalizeFormat maps a type hint such as "JPG" or ".tif" to an output format
// name. It returns false for formats that cannot be encoded.
func NormalizeFormat(hint string) (string, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if !strings.HasPrefix(hint, ".") {
		hint = "." + hint
	}
	format, ok := extFormats[hint]
	return format, ok
}

// FormatFor picks the output format for path. A non-empty hint overrides the
// extension; anything unrecognized falls back to DefaultFormat.
func FormatFor(path, hint string) string {
	if hint != "" {
		if format, ok := NormalizeFormat(hint); ok {
			return format
		}
		slog.Warn("unsupported output type, using default", "type", hint, "default", DefaultFormat)
		return DefaultFormat
	}

	if path == "" {
		return DefaultFormat
	}
	if format, ok := NormalizeFormat(filepath.Ext(path)); ok {
		return format
	}
	slog.Warn("could not infer output format from extension, using default", "name", path, "default", DefaultFormat)
	return DefaultFormat
}

// Lossless reports whether format keeps every channel value as written.
func Lossless(format string) bool {
	switch format {
	case "png", "bmp", "tiff":
		return true
	}
	return false
}

func (p *Picture) Encode(w io.Writer, format string) error {
	if !Lossless(format) {
		slog.Warn("output format does not preserve hidden data", "format", format)
	}

	switch format {
	case "gif":
		if err := gif.Encode(w, p.img, nil); err != nil {
			return fmt.Errorf("could not encode GIF: %w", err)
		}
	case "jpeg":
		if err := jpeg.Encode(w, p.img, &jpeg.Options{Quality: 100}); err != nil {
			return fmt.Errorf("could not encode JPEG: %w", err)
		}
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		if err := enc.Encode(w, p.img); err != nil {
			return fmt.Errorf("could not encode PNG: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(w, p.img); err != nil {
			return fmt.Errorf("could not encode BMP: %w", err)
		}
	case "tiff":
		if err := tiff.Encode(w, p.img, nil); err != nil {
			return fmt.Errorf("could not encode TIFF: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

// Save encodes the picture into a temporary file next to dest and renames it
// into place once fully written.
func (p *Picture) Save(dest, format string) error {
	return WriteFile(dest, func(w io.Writer) error {
		return p.Encode(w, format)
	})
}

// WriteFile creates dest atomically from whatever write produces.
func WriteFile(dest string, write func(io.Writer) error) (err error) {
	destDir, destName := filepath.Split(dest)
	if destDir == "" {
		destDir = "."
	}

	outFile, err := os.CreateTemp(destDir, destName+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), dest); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
		if err != nil {
			if defErr := os.Remove(outFile.Name()); defErr != nil {
				slog.Error("could not remove temporary destination", "name", outFile.Name(), "error", defErr)
			}
		}
	}()

	if err = write(outFile); err != nil {
		return err
	}
	if err = outFile.Chmod(FileMode); err != nil {
		return fmt.Errorf("could not set mode of temporary destination %q: %w", destName, err)
	}

	canRename = true
	return nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
