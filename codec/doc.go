// Package codec implements the per-column compression algorithms used to
// write reconstructed snapshot and order rows to disk: run-length, dictionary,
// static and dynamic bit-packing, and an auto-select wrapper that tries all of
// them and keeps the smallest result. Columns are described by a fixed Schema
// so encode and decode agree on field order and bit width without carrying
// that metadata on the wire.
package codec
