package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// cachedFeed is the last good body of one feed together with the
// validators needed for a conditional request.
type cachedFeed struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	Body         string    `json:"body"`
}

// feedCache keeps one JSON document per feed URL under dir. Documents are
// replaced with a rename so a crash never leaves a torn body behind.
type feedCache struct {
	dir string
}

func (c feedCache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8])+".json")
}

// load returns the cached feed for url. A missing, unreadable or foreign
// document counts as no cache.
func (c feedCache) load(url string) (cachedFeed, bool) {
	data, err := os.ReadFile(c.path(url))
	if err != nil {
		return cachedFeed{}, false
	}
	var f cachedFeed
	if err := json.Unmarshal(data, &f); err != nil || f.URL != url || f.Body == "" {
		return cachedFeed{}, false
	}
	return f, true
}

func (c feedCache) save(f cachedFeed) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(&f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".feed-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(f.URL))
}
