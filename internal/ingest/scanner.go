package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Scanner reads candidate documents from the local filesystem.
type Scanner struct {
	MaxBytes   int64
	SkipHidden bool
	Logger     *slog.Logger
}

func NewScanner(maxBytes int64, skipHidden bool, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{MaxBytes: maxBytes, SkipHidden: skipHidden, Logger: logger}
}

// LoadFile reads and hashes one file.
func (s *Scanner) LoadFile(path string) (Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Document{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return Document{}, common.NewAppError("UNSUPPORTED_EXTENSION", fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupportedFormat)
	}

	f, err := os.Open(abs)
	if err != nil {
		return Document{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			s.Logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	st, err := f.Stat()
	if err != nil {
		return Document{}, err
	}
	if s.MaxBytes > 0 && st.Size() > s.MaxBytes {
		return Document{}, common.NewAppError("INPUT_TOO_LARGE", fmt.Sprintf("%s is %d bytes, maximum is %d", filepath.Base(abs), st.Size(), s.MaxBytes), common.ErrUnsupportedFormat)
	}

	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(f, h))
	if err != nil {
		return Document{}, err
	}
	return Document{
		Path:     abs,
		Filename: filepath.Base(abs),
		Ext:      ext,
		Size:     int64(len(data)),
		SHA256:   hex.EncodeToString(h.Sum(nil)),
		ModTime:  st.ModTime(),
		Data:     data,
	}, nil
}

// ScanDirectory walks root and loads every file with an allowed extension.
// Files whose content was already seen in this scan are returned marked
// Deduplicated without data. Per-file errors are reported in Document.Err.
func (s *Scanner) ScanDirectory(ctx context.Context, root string) ([]Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var docs []Document
	var stats DirStats
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			docs = append(docs, Document{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if s.SkipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := s.LoadFile(path)
		if err != nil {
			s.Logger.Warn("skipping file", "path", path, "error", err)
			docs = append(docs, Document{Path: path, Filename: filepath.Base(path), Err: err.Error()})
			stats.Failed++
			return nil
		}
		if first, dup := seen[doc.SHA256]; dup {
			s.Logger.Info("duplicate content", "path", doc.Path, "first", first)
			doc.Deduplicated = true
			doc.Data = nil
			stats.Deduplicated++
		} else {
			seen[doc.SHA256] = doc.Path
		}
		docs = append(docs, doc)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return docs, stats, fmt.Errorf("walk: %w", err)
	}
	return docs, stats, nil
}
