package storage

import "context"

// ObjectInfo represents metadata for an archived report object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ReportArchive captures the minimal object-storage operations the settlement
// report export needs.
type ReportArchive interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
