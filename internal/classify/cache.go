package classify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	bucketIndices = []byte("indices")
	bucketSectors = []byte("sectors")
	bucketMeta    = []byte("meta")
)

const cacheSchemaVersion = "1"

var errCacheVersion = errors.New("classification cache has an unsupported version")

// writeCache replaces the bolt file at path with the contents of ix.
func writeCache(path string, ix *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("classify: create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	os.Remove(tmp)

	db, err := bolt.Open(tmp, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("classify: open cache: %w", err)
	}
	indices, sectors := ix.snapshot()
	err = db.Update(func(tx *bolt.Tx) error {
		ib, err := tx.CreateBucket(bucketIndices)
		if err != nil {
			return err
		}
		for name, symbols := range indices {
			data, err := json.Marshal(symbols)
			if err != nil {
				return err
			}
			if err := ib.Put([]byte(name), data); err != nil {
				return err
			}
		}
		sb, err := tx.CreateBucket(bucketSectors)
		if err != nil {
			return err
		}
		for sym, sector := range sectors {
			if err := sb.Put([]byte(sym), []byte(sector)); err != nil {
				return err
			}
		}
		mb, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := mb.Put([]byte("version"), []byte(cacheSchemaVersion)); err != nil {
			return err
		}
		return mb.Put([]byte("built_at"), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("classify: write cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("classify: write cache: %w", err)
	}
	return nil
}

// readCache loads index and sector maps from the bolt file at path.
func readCache(path string) (map[string][]string, map[string]string, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("classify: open cache: %w", err)
	}
	defer db.Close()

	indices := map[string][]string{}
	sectors := map[string]string{}
	err = db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(bucketMeta)
		if mb == nil || string(mb.Get([]byte("version"))) != cacheSchemaVersion {
			return errCacheVersion
		}
		if ib := tx.Bucket(bucketIndices); ib != nil {
			err := ib.ForEach(func(k, v []byte) error {
				var symbols []string
				if err := json.Unmarshal(v, &symbols); err != nil {
					return fmt.Errorf("index %s: %w", k, err)
				}
				indices[string(k)] = symbols
				return nil
			})
			if err != nil {
				return err
			}
		}
		if sb := tx.Bucket(bucketSectors); sb != nil {
			return sb.ForEach(func(k, v []byte) error {
				sectors[string(k)] = string(v)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("classify: read cache: %w", err)
	}
	return indices, sectors, nil
}

// ClearCache removes the classification cache file, if any.
func ClearCache(opts Options) error {
	path := opts.CachePath()
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("classify: clear cache: %w", err)
	}
	return nil
}

// CacheExists reports whether the classification cache file is present.
func CacheExists(opts Options) bool {
	path := opts.CachePath()
	return path != "" && fileExists(path)
}
