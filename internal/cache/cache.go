package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a namespace and the content it describes
func Key(namespace string, content string) string {
	hash := sha256.Sum256([]byte(content))
	return "claimrank:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
