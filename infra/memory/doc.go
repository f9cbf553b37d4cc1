// Package memory provides the low-level allocation and indexing primitives
// the LOB engine and feature store are built on: a bump arena for
// day-lifetime allocations, a bitmap-backed pool for structures that need
// individual deallocation, a chained hash map sized for a trading day's peak
// id count, and a 65536-bit fast bitmap for the visible-price index.
//
// The hash map's bucket array never resizes after construction; the two
// pools grow by whole chunks on demand. No individual bump-pool object is
// ever freed — the trading day is the unit of lifetime, and `Reset` is the
// only way bump-pool memory comes back.
package memory
