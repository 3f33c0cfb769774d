// Package storage provides the object store backends used for avatar blobs.
// Two remote backends exist, MinIO and S3, plus an in-memory store for tests.
// All of them satisfy types.ObjectStore.
package storage

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-accounts/pkg/types"
)

// Backend names accepted by Config.Backend.
const (
	BackendMinio  = "minio"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config selects and configures an object store backend.
type Config struct {
	Backend       string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	Bucket        string
	PublicBaseURL string
	UseSSL        bool
}

// New constructs the object store named by cfg.Backend.
func New(cfg Config) (types.ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMinio:
		return NewMinioStore(cfg)
	case BackendS3:
		return NewS3Store(cfg)
	case BackendMemory, "":
		return NewMemoryStore(cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
