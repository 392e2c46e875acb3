package wx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Cache persists weather datasets on disk so a restart can serve the last
// known conditions before the first fetch completes.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache that stores snapshots in dir and keeps at most
// maxFiles of them.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{
		dir:      dir,
		maxFiles: maxFiles,
	}
}

// Write saves the dataset to a timestamped file and prunes old snapshots
// beyond maxFiles.
func (c *Cache) Write(ds *Dataset) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	filename := fmt.Sprintf("wx_%d.json", ds.FetchedAt.Unix())
	path := filepath.Join(c.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return c.prune()
}

// LoadLatest reads the newest snapshot by timestamp in the filename.
func (c *Cache) LoadLatest() (*Dataset, error) {
	files, err := c.listFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no cache files found")
	}

	// Files are sorted oldest first; take the last one.
	latest := files[len(files)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest))
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decoding cache file %s: %w", latest, err)
	}
	return &ds, nil
}

// listFiles returns snapshot filenames sorted oldest first.
func (c *Cache) listFiles() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	type snapshot struct {
		name string
		ts   int64
	}
	var files []snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "wx_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		tsStr := strings.TrimSuffix(strings.TrimPrefix(name, "wx_"), ".json")
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		files = append(files, snapshot{name: name, ts: ts})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ts < files[j].ts })

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

func (c *Cache) prune() error {
	files, err := c.listFiles()
	if err != nil {
		return err
	}
	if len(files) <= c.maxFiles {
		return nil
	}

	for _, name := range files[:len(files)-c.maxFiles] {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return fmt.Errorf("pruning cache file %s: %w", name, err)
		}
	}
	return nil
}
