package app

import (
	"fmt"
	"path/filepath"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/pkg/objstore"
)

// localObjectsPath is where LocalStore objects are served.
const localObjectsPath = "/objects"

// OpenStore builds the object store selected by storage.driver.
func OpenStore(cfg *config.AppConfig) (objstore.Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3cfg := cfg.Storage.S3
		return objstore.NewS3Store(objstore.S3Options{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			CustomDomain:    s3cfg.CustomDomain,
			PathStyle:       s3cfg.UsePathStyle(),
		})
	case "local":
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = localObjectsPath
		}
		return objstore.NewLocalStore(filepath.Join(cfg.StaticDir(), "objects"), base)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
