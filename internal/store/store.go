package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketIcons = []byte("icons")
	bucketMeta  = []byte("meta")
)

// iconMeta is stored alongside icon bytes so a changed icon URL is refetched
type iconMeta struct {
	URL       string    `json:"url"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IconStore persists icon bytes in BoltDB. With no directory it keeps
// everything in memory for the life of the process.
type IconStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory-only maps

	icons map[string][]byte
	meta  map[string]iconMeta
}

// Open opens the store under baseCacheDir. Each catalog URL gets its own
// database so icons from different backends never collide.
func Open(baseCacheDir, sourceURL string) (*IconStore, error) {
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return &IconStore{icons: make(map[string][]byte), meta: make(map[string]iconMeta)}, nil
	}

	dir := baseCacheDir
	if sourceURL != "" {
		dir = filepath.Join(baseCacheDir, hashSourceURL(sourceURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "icons.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := db.Update(createBuckets); err != nil {
		db.Close()
		return nil, err
	}

	return &IconStore{db: db}, nil
}

func createBuckets(tx *bolt.Tx) error {
	for _, bucket := range [][]byte{bucketIcons, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

func hashSourceURL(sourceURL string) string {
	normalized := strings.TrimRight(strings.ToLower(sourceURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Persistent reports whether the store writes to disk
func (s *IconStore) Persistent() bool {
	return s.db != nil
}

func (s *IconStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the stored icon for key if it was fetched from url
func (s *IconStore) Get(key, url string) ([]byte, bool) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		m, ok := s.meta[key]
		if !ok || m.URL != url {
			return nil, false
		}
		return s.icons[key], true
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var m iconMeta
		if err := json.Unmarshal(raw, &m); err != nil || m.URL != url {
			return nil
		}
		if v := tx.Bucket(bucketIcons).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false
	}
	return data, true
}

// Put stores data as the icon for key, fetched from url
func (s *IconStore) Put(key, url string, data []byte) error {
	if len(data) == 0 {
		return errors.New("refusing to store empty icon")
	}
	m := iconMeta{URL: url, Size: len(data), FetchedAt: time.Now()}

	if s.db == nil {
		s.mu.Lock()
		s.icons[key] = append([]byte(nil), data...)
		s.meta[key] = m
		s.mu.Unlock()
		return nil
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketIcons).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(key), raw)
	})
}

// Delete removes the icon stored under key
func (s *IconStore) Delete(key string) error {
	if s.db == nil {
		s.mu.Lock()
		delete(s.icons, key)
		delete(s.meta, key)
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketIcons).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Delete([]byte(key))
	})
}

// Count returns the number of stored icons
func (s *IconStore) Count() int {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.icons)
	}
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketIcons).Stats().KeyN
		return nil
	})
	return n
}

// Clear removes every stored icon
func (s *IconStore) Clear() error {
	if s.db == nil {
		s.mu.Lock()
		s.icons = make(map[string][]byte)
		s.meta = make(map[string]iconMeta)
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketIcons, bucketMeta} {
			if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		return createBuckets(tx)
	})
}
