// Package snapshot persists the result of a discovery scan.
//
// A snapshot records which devices were seen, with a unique run ID and
// timestamp, encoded as CBOR. Comparing the previous snapshot with a
// fresh scan tells the operator which devices appeared or disappeared
// since the last run.
package snapshot
