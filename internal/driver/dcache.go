package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the payload format changes so stale entries self-invalidate.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores compiled outputs keyed by a digest of the source text
// and file type. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached compile result.
type DiskPayload struct {
	Schema   uint16
	FileType string
	Code     string
}

// OpenDiskCache initializes the cache at the standard XDG location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Key digests the source and file type into a cache key.
func Key(src string, fileType string) [32]byte {
	h := sha256.New()
	h.Write([]byte(fileType))
	h.Write([]byte{0})
	h.Write([]byte(src))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key [32]byte) string {
	return filepath.Join(c.dir, "out", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload, atomically via rename.
func (c *DiskCache) Put(key [32]byte, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = diskCacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	data, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads a payload; (nil, nil) on miss or schema mismatch.
func (c *DiskCache) Get(key [32]byte) (*DiskPayload, error) {
	if c == nil {
		return nil, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var payload DiskPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		// A corrupt entry is a miss, not a failure.
		return nil, nil
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, nil
	}
	return &payload, nil
}
