package vault

import (
	"context"
	"fmt"
	"os"

	infrafs "navisolcore/internal/infra/vault/fs"
	inframemory "navisolcore/internal/infra/vault/memory"
	infras3 "navisolcore/internal/infra/vault/s3"
)

// Open selects a vault backend using environment variables.
//
//	NAVISOL_BLOB_DRIVER: fs|s3|memory (default fs)
//	NAVISOL_BLOB_FS_ROOT: directory root when driver=fs (default ./vaultdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("NAVISOL_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return infrafs.New(os.Getenv("NAVISOL_BLOB_FS_ROOT"))
	case DriverS3:
		return infras3.OpenFromEnv(ctx)
	case DriverMemory:
		return inframemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// NewFilesystem constructs a filesystem vault rooted at root.
func NewFilesystem(root string) (Store, error) { return infrafs.New(root) }

// NewMemory constructs an in-memory vault suitable for tests.
func NewMemory() Store { return inframemory.New() }

// S3Config re-exports the S3 construction parameters.
type S3Config = infras3.Config

// NewS3 constructs an S3-backed vault from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return infras3.New(ctx, cfg) }

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests() Store { return infras3.NewMockForTests() }
