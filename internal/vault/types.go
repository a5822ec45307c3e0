// Package vault re-exports the document vault abstractions and selects a
// backend from the environment. Project documents, generated exports, and
// compliance evidence all live here under structured keys.
package vault

import (
	"navisolcore/internal/vault/core"
)

type (
	// Driver identifies a vault backend driver.
	Driver = core.Driver
	// PutOptions configures a document write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored document metadata.
	Info = core.Info
	// Store is the interface for vault backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported
