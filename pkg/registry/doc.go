// Package registry reads and writes the device registry file.
//
// The registry is a flat, human-editable text file mapping config
// identifiers to device IPv4 addresses:
//
//	[kitchen.yaml]
//	192.168.2.14  # kitchen-a4f2
//
//	[shelly_1_mini_gen3.yaml]
//	192.168.2.5  # shelly-1-mini-gen3-abcd
//	192.168.2.9  # shelly-1-mini-gen3-77e1
//
//	# Unmatched devices, assign manually:
//	# 192.168.2.200  # mystery-device
//
// A [header] line opens a section; any line whose first whitespace
// separated token is a dotted-quad IPv4 address belongs to the current
// section, the rest of the line is a comment. All other lines are
// ignored. Operators are expected to edit the file by hand; nothing
// enforces IP uniqueness across sections.
package registry
