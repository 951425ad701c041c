package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// AudioCache is a two-tier (memory, then disk) cache of synthesized audio
// keyed by sha256(voice + ":" + text). Disk entries are always read; they
// are only written when persist is set.
type AudioCache struct {
	voice   string
	dir     string
	persist bool
	log     *logger.Logger

	mu      sync.RWMutex
	entries map[string][]byte

	hits   atomic.Int64
	misses atomic.Int64
}

// NewAudioCache creates a cache. An empty dir disables the disk tier.
func NewAudioCache(voice, dir string, persist bool, log *logger.Logger) *AudioCache {
	if dir != "" && persist {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", dir, err)
		}
	}
	return &AudioCache{
		voice:   voice,
		dir:     dir,
		persist: persist,
		log:     log,
		entries: make(map[string][]byte),
	}
}

// Get returns cached audio for text. A disk hit is promoted to memory.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return data, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			c.mu.Lock()
			c.entries[key] = data
			c.mu.Unlock()
			c.hits.Add(1)
			c.log.Debug("cache hit (disk): %s", truncate(text, 40))
			return data, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Put stores audio for text.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" || !c.persist {
		return
	}
	if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", key[:12], err)
	}
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".audio")
}
