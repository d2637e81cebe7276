package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"spotter/internal/diag"
	"spotter/internal/finding"
	"spotter/internal/syntax"
)

// Current schema version - increment when CachedResult format changes
const cacheSchemaVersion uint16 = 2

// Digest is a cache key.
type Digest [32]byte

// KeyInput is everything one file's findings depend on besides the rules
// themselves.
type KeyInput struct {
	FileHash   [32]byte
	TreeDigest [32]byte
	// Path is the path the file was loaded from, MatchPath the one rule
	// activation globs see.
	Path       string
	MatchPath  string
	ConfigHash string
	Version    string
}

// CacheKey derives the key of one file's findings.
func CacheKey(in KeyInput) Digest {
	h := sha256.New()
	h.Write(in.FileHash[:])
	h.Write(in.TreeDigest[:])
	for _, s := range []string{in.Path, in.MatchPath, in.ConfigHash, in.Version} {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Cache stores per-file results on disk, one msgpack file per key.
// Thread-safe for concurrent access; a nil Cache stores nothing.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CachedResult is what is kept for one analysed file. Runs with rule
// execution errors are never cached.
type CachedResult struct {
	Schema   uint16
	Findings []finding.Finding
	Skipped  []string
}

// DefaultCacheDir returns $XDG_CACHE_HOME/app or ~/.cache/app.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenCache initializes a cache rooted at dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// два символа ключа как подкаталог, чтобы не держать тысячи файлов в одном месте
	return filepath.Join(c.dir, "findings", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a result.
func (c *Cache) Put(key Digest, res *CachedResult) (err error) {
	if c == nil {
		return nil
	}
	res.Schema = cacheSchemaVersion

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(res); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного Rename временного файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a result. A missing entry or one written by another schema
// version is a miss.
func (c *Cache) Get(key Digest, out *CachedResult) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from the cache key
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// rebind points cached findings at the file of the current run: file ids
// are assigned per run and the path may have been spelled differently.
func rebind(findings []finding.Finding, sf *syntax.SourceFile) []finding.Finding {
	out := make([]finding.Finding, len(findings))
	for i, f := range findings {
		f.Entity.Location.Path = sf.Path()
		f.Entity.Location.Span.File = sf.File.ID
		if len(f.Corrections) > 0 {
			fixes := make([]diag.Fix, len(f.Corrections))
			for j, fx := range f.Corrections {
				edits := make([]diag.TextEdit, len(fx.Edits))
				for k, e := range fx.Edits {
					e.Span.File = sf.File.ID
					edits[k] = e
				}
				fx.Edits = edits
				fixes[j] = fx
			}
			f.Corrections = fixes
		}
		out[i] = f
	}
	return out
}
