package app

// Storage backends register themselves with the storage registry
import (
	_ "github.com/kurum-rebirth/kurum-sync/internal/storage/local"
	_ "github.com/kurum-rebirth/kurum-sync/internal/storage/minio"
	_ "github.com/kurum-rebirth/kurum-sync/internal/storage/s3"
)
