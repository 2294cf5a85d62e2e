// Package stream serializes captured sensor data into the framed binary
// formats consumed downstream: a multiplexed length-prefixed TCP protocol, a
// depth-only TCP variant, and the per-sensor record files.
//
// All fields are little-endian. The layouts are a wire contract shared with
// external readers; field order and widths must not change.
package stream
