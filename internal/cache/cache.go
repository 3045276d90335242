// Package cache provides a filesystem-backed cache for provider responses that scripts mark as cacheable.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/where"
)

const TTL = 7 * 24 * time.Hour

func dir() string {
	return filepath.Join(where.Cache(), "http")
}

// GenerateKey generates a deterministic SHA-256 hash from a query and namespace pair for use as a cache identifier.
func GenerateKey(query, namespace string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(query, " ", "")) + namespace
	hash := sha256.Sum256([]byte(sanitized))
	return hex.EncodeToString(hash[:])
}

// Read retrieves and deserializes a cached object if it exists and has not exceeded its TTL.
func Read(key string, target any) bool {
	path := filepath.Join(dir(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > TTL {
		return false
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, target) == nil
}

// Write persists a serializable object to the cache.
func Write(key string, data any) error {
	if err := filesystem.API().MkdirAll(dir(), 0o755); err != nil {
		return err
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return filesystem.WriteAtomic(filepath.Join(dir(), key), encoded, 0o644)
}

// CollectGarbage removes expired entries and returns how many were pruned.
func CollectGarbage() int {
	var pruned int
	_ = filesystem.API().Walk(dir(), func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > TTL && filesystem.API().Remove(path) == nil {
			pruned++
		}
		return nil
	})
	return pruned
}
