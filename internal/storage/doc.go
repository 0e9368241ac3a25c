// Package storage is the persistence adapter of the configuration engine.
//
// The engine only talks to the FileSystem interface: existence checks, whole
// file reads, atomic whole file writes, byte-for-byte copies and modification
// times. Storage implements it on an afero filesystem so production code runs
// against the OS while tests run against memory:
//
//	s := storage.NewStorage()                          // OS filesystem
//	s := storage.NewStorageWithFs(afero.NewMemMapFs()) // in memory
package storage
