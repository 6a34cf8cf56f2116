// Package repository holds the raw-SQL data access layer.  Sentinel errors
// defined here let handlers and services distinguish failure scenarios
// without inspecting driver error strings themselves.
package repository

import "errors"

// ErrNotFound is returned when a lookup by primary key matches no row.
var ErrNotFound = errors.New("record not found")

// ErrHandleExists is returned when registering an identity with a handle
// that is already taken.
var ErrHandleExists = errors.New("handle already exists")

// ErrModelExists is returned when creating a product whose model code is
// already in the catalog.
var ErrModelExists = errors.New("product model already exists")
