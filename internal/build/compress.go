package build

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// textExts are the output types worth compressing.
var textExts = map[string]bool{
	".html": true, ".css": true, ".js": true, ".json": true,
	".xml": true, ".txt": true, ".svg": true,
}

// compressMin skips bodies the codecs cannot meaningfully shrink.
const compressMin = 1024

// Codecs in emission order; each text asset gets one sibling per codec.
const (
	CodecGzip   = "gzip"
	CodecBrotli = "br"
)

// stageCompress writes .gz and .br siblings next to every text-like output.
// Codec failures are caught per item and never abort sibling items.
func stageCompress(_ context.Context, bs *State) error {
	return filepath.WalkDir(bs.OutDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !textExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		body, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("compress read failed", logfields.Path(path), logfields.Error(readErr))
			return nil
		}
		if len(body) < compressMin {
			return nil
		}
		for _, codec := range []string{CodecGzip, CodecBrotli} {
			out, cErr := Compress(codec, body)
			if cErr != nil {
				slog.Warn("compression failed", logfields.Path(path), logfields.Codec(codec), logfields.Error(cErr))
				continue
			}
			if wErr := os.WriteFile(path+codecExt(codec), out, 0o644); wErr != nil {
				slog.Warn("compressed write failed", logfields.Path(path), logfields.Codec(codec), logfields.Error(wErr))
			}
		}
		return nil
	})
}

func codecExt(codec string) string {
	if codec == CodecBrotli {
		return ".br"
	}
	return ".gz"
}

// Compress encodes body with the named codec. Shared with the live cache's
// pre-compression pass.
func Compress(codec string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch codec {
	case CodecBrotli:
		w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
