package ingest

import "fmt"

// UnsupportedFormatError reports a roster upload whose file extension is not
// a supported spreadsheet format. Detection happens before any row is read,
// geocoded, or persisted.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("ingest: unsupported roster format %q (expected .csv or .xlsx)", e.Ext)
}

// SchemaMismatchError reports a roster whose header shares no columns with
// the canonical schema. Nothing from such a file is persisted.
type SchemaMismatchError struct {
	Header []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("ingest: no recognized columns in header %v", e.Header)
}

// PersistenceError reports a store write failure. The batch may be partially
// committed, so callers decide whether to retry; duplicate inserts are the
// cost of retrying blindly.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ingest: persist batch: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
