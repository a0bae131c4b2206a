// Package config derives device configuration identifiers from a
// directory of ESPHome YAML files.
//
// Each YAML file in the directory yields one Identifier. The file base
// name with its extension stripped is the identifier name; underscores
// are replaced with hyphens to produce the normalized form used for
// matching against advertised mDNS instance names (ESPHome node names
// may not contain underscores, config file names commonly do).
//
// Two kinds of files are excluded: the secrets file (secrets.yaml) and
// shared include files whose name starts with the reserved "base"
// prefix. Neither describes a flashable device.
package config
