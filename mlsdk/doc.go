// Package mlsdk defines the boundary to the device's perception stack: the
// result codes, handles, bitmasks and frame structures of the vendor ABI,
// plus Go interfaces for each service the capture subsystems talk to.
//
// Numeric values of result codes and bitmask members mirror the vendor SDK
// and must not be renumbered; downstream tooling decodes them from recorded
// files.
//
// Implementations of these interfaces wrap the native SDK on-device. The
// fake subpackage provides in-memory implementations for tests and for
// running the stream daemon off-device.
package mlsdk
