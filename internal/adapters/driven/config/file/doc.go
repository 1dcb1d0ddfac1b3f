// Package file provides the TOML-backed configuration store.
//
// Keys are flat dot paths such as "llm.model". On disk they are written as
// nested TOML tables, and environment variables can be bound to keys so
// secrets never need to be written to the file.
package file
