// Package marketfs implements file-based storage for fetched TSETMC data.
// Values are written atomically (temp file plus rename) as JSON, and
// tables can be exported as CSV alongside them.
package marketfs

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
)

// Store provides file-based JSON and CSV storage for market data.
type Store struct {
	basePath  string
	jsonDir   string
	exportDir string
	logger    *common.Logger
}

// NewStore creates a new market file store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create market store path %s: %w", path, err)
	}
	jsonDir := filepath.Join(path, "market")
	exportDir := filepath.Join(path, "export")
	os.MkdirAll(jsonDir, 0755)
	os.MkdirAll(exportDir, 0755)

	logger.Info().Str("path", path).Msg("MarketFS store opened")
	return &Store{
		basePath:  path,
		jsonDir:   jsonDir,
		exportDir: exportDir,
		logger:    logger,
	}, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// SaveJSON writes the value under the key atomically.
func (s *Store) SaveJSON(key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.writeAtomic(filePath(s.jsonDir, key), data)
}

// LoadJSON reads the value stored under the key and returns its write time.
func (s *Store) LoadJSON(key string, out interface{}) (time.Time, error) {
	path := filePath(s.jsonDir, key)
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return time.Time{}, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return info.ModTime(), nil
}

// SaveCSV writes a CSV table to the export directory and returns its path.
func (s *Store) SaveCSV(name string, header []string, rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return "", fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write CSV rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	target := filepath.Join(s.exportDir, sanitizeKey(name)+".csv")
	if err := s.writeAtomic(target, []byte(sb.String())); err != nil {
		return "", err
	}
	s.logger.Debug().Str("path", target).Int("rows", len(rows)).Msg("CSV export written")
	return target, nil
}

// Purge removes every cached JSON file and returns the count.
func (s *Store) Purge() int {
	entries, err := os.ReadDir(s.jsonDir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if os.Remove(filepath.Join(s.jsonDir, e.Name())) == nil {
			count++
		}
	}
	return count
}

func (s *Store) writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_", " ", "_")
	return r.Replace(key)
}

func filePath(dir, key string) string {
	return filepath.Join(dir, sanitizeKey(key)+".json")
}

// Ensure Store implements MarketCache
var _ interfaces.MarketCache = (*Store)(nil)
