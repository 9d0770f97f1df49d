package model

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// LoadBooster reads an XGBoost JSON model from path. Files ending in .zst are
// decompressed with zstd.
func LoadBooster(path string) (*Booster, error) {
	r, err := openArtifact(path)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck // read-only

	b, err := DecodeBooster(r)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return b, nil
}

func openArtifact(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open zstd artifact: %w", err)
	}
	return &zstdFile{Decoder: dec, file: f}, nil
}

// zstdFile closes both the decoder and the underlying file.
type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}
