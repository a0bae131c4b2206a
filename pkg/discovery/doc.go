// Package discovery finds ESPHome devices on the local network via
// mDNS/DNS-SD and matches them against local config identifiers.
//
// Devices running the ESPHome native API advertise the service type
// _esphomelib._tcp in the local. domain; the advertised instance name
// is the node name (e.g. "shelly-1-mini-gen3-abcd").
//
// A scan runs in two phases:
//
//  1. Browse for the service type for a bounded window and collect the
//     unique, sorted set of advertised instance names.
//  2. Resolve each name to its first IPv4 address with a short
//     per-name timeout. Names that do not resolve in time are skipped;
//     that is not an error.
//
// Each resolved device is grouped under the lexically first config
// identifier whose normalized form is a prefix of the device name, or
// under the unmatched sentinel when none matches. The zeroconf library
// is treated as a black box for the actual DNS-SD traffic.
package discovery
