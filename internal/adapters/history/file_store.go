// Package history persists analysis records as JSON files on disk.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/briefler/briefler/internal/core"
	"go.uber.org/zap"
)

const previewLength = 200

// FileStore is a file-backed implementation of the HistoryRepository
// interface. Each record lives in its own JSON file named by analysis id.
type FileStore struct {
	dir      string
	maxFiles int
	logger   *zap.Logger
}

// NewFileStore creates a new file store, creating the storage directory if needed
func NewFileStore(dir string, maxFiles int, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileStore{
		dir:      dir,
		maxFiles: maxFiles,
		logger:   logger,
	}, nil
}

// Save persists an analysis record and prunes the oldest files beyond the cap
func (s *FileStore) Save(ctx context.Context, record *core.AnalysisRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	path := s.pathFor(record.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err := s.prune(); err != nil {
		// Pruning failure should not fail the save
		s.logger.Warn("Failed to prune history files", zap.Error(err))
	}
	return nil
}

// List returns a paginated history listing, newest first
func (s *FileStore) List(ctx context.Context, limit, offset int) (*core.HistoryPage, error) {
	files, err := s.recordFiles()
	if err != nil {
		return nil, err
	}

	page := &core.HistoryPage{
		Items:  []core.HistoryItem{},
		Total:  len(files),
		Limit:  limit,
		Offset: offset,
	}

	// Window first, then skip. A malformed file shrinks its page instead
	// of shifting records onto the next one, so offsets stay stable.
	start := offset
	if start > len(files) {
		start = len(files)
	}
	end := start + limit
	if end > len(files) {
		end = len(files)
	}

	for _, file := range files[start:end] {
		record, err := s.readRecord(file.path)
		if err != nil {
			s.logger.Warn("Skipping unreadable history file",
				zap.String("path", file.path), zap.Error(err))
			continue
		}
		page.Items = append(page.Items, core.HistoryItem{
			ID:          record.ID,
			Timestamp:   record.Timestamp,
			SenderCount: len(record.Parameters.SenderEmails),
			Language:    record.Parameters.Language,
			Days:        record.Parameters.Days,
			Preview:     preview(record.Result),
		})
	}

	return page, nil
}

// Get returns a single record by id, or core.ErrNotFound
func (s *FileStore) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	// Reject ids that could escape the storage directory
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return nil, core.ErrNotFound
	}

	record, err := s.readRecord(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *FileStore) pathFor(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) readRecord(path string) (*core.AnalysisRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record core.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", path, err)
	}
	return &record, nil
}

type recordFile struct {
	path  string
	mtime int64
}

// recordFiles lists the JSON files in the storage directory, newest first
func (s *FileStore) recordFiles() ([]recordFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	files := make([]recordFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, recordFile{
			path:  filepath.Join(s.dir, entry.Name()),
			mtime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].mtime > files[j].mtime
	})
	return files, nil
}

// prune deletes the oldest record files until the count is within maxFiles
func (s *FileStore) prune() error {
	if s.maxFiles <= 0 {
		return nil
	}
	files, err := s.recordFiles()
	if err != nil {
		return err
	}
	for i := s.maxFiles; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			return fmt.Errorf("failed to remove old history file: %w", err)
		}
		s.logger.Debug("Pruned history file", zap.String("path", files[i].path))
	}
	return nil
}

// preview returns the first previewLength characters of text on rune
// boundaries, with a trailing ellipsis when truncated
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
