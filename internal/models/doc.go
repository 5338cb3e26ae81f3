// Package models defines the data types passed between the generation workflow, its provider and its storage.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs exchanged with the provider
//   - [TrackRef] : a recommended track (id and URI)
//   - [Identity] : the authenticated user
//   - [PlaylistRequest] : playlist creation input
//   - [PlaylistResult] : the outcome of a generation run
//
// 2. Persistent Entities: database-backed models
//   - [GeneratedPlaylist] : one logged generation run, complete or partial
//
// Persistent entities implement the Model interface providing ID, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
