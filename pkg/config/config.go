package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SecretsFile is excluded from identifier derivation.
	SecretsFile = "secrets.yaml"

	// ReservedPrefix marks shared include files (base.yaml,
	// base_sensor.yaml, ...) that do not describe a device.
	ReservedPrefix = "base"
)

// ErrNotFound is returned when a named configuration file does not
// exist in the scanned directory.
var ErrNotFound = errors.New("configuration not found")

// Identifier names one device configuration file.
type Identifier struct {
	// File is the file name including extension, e.g.
	// "shelly_1_mini_gen3.yaml". Registry section headers use this form.
	File string

	// Name is File with the extension stripped.
	Name string

	// Normalized is Name with underscores replaced by hyphens.
	// Advertised instance names are matched against this form.
	Normalized string

	// NodeName is the explicit device name declared in the YAML
	// (esphome: name:), if any. Empty when the file declares none or
	// cannot be read.
	NodeName string
}

// Normalize converts an identifier name to the form advertised names
// are compared against: underscores become hyphens.
func Normalize(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Derive builds an Identifier from a configuration file name without
// touching the filesystem.
func Derive(file string) Identifier {
	name := strings.TrimSuffix(file, filepath.Ext(file))
	return Identifier{
		File:       file,
		Name:       name,
		Normalized: Normalize(name),
	}
}

// Scan lists the configuration files in dir and derives their
// identifiers, sorted lexically by file name. The secrets file and
// files with the reserved prefix are skipped. Node names declared in
// the YAML are picked up when the file parses; unreadable or invalid
// YAML is not an error, the identifier simply carries no node name.
func Scan(dir string) ([]Identifier, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var ids []Identifier
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		ext := filepath.Ext(file)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if file == SecretsFile {
			continue
		}
		if strings.HasPrefix(file, ReservedPrefix) {
			continue
		}

		id := Derive(file)
		if node, err := NodeName(filepath.Join(dir, file)); err == nil && node != "" {
			id.NodeName = node
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].File < ids[j].File })
	return ids, nil
}

// Match returns the first identifier, in lexical order, whose
// normalized form (or declared node name) is a prefix of the
// advertised device name. The second result is false when no
// identifier matches.
//
// First-lexical-match is deliberate: with overlapping identifiers
// (shelly-1, shelly-1-mini) the shorter one wins when it sorts first.
func Match(ids []Identifier, deviceName string) (Identifier, bool) {
	for _, id := range ids {
		if strings.HasPrefix(deviceName, id.Normalized) {
			return id, true
		}
		if id.NodeName != "" && strings.HasPrefix(deviceName, id.NodeName) {
			return id, true
		}
	}
	return Identifier{}, false
}

// Resolve maps a user-supplied config argument to an identifier from
// ids. The argument may be given with or without the file extension.
func Resolve(ids []Identifier, arg string) (Identifier, error) {
	for _, id := range ids {
		if arg == id.File || arg == id.Name {
			return id, nil
		}
	}
	return Identifier{}, fmt.Errorf("%w: %s", ErrNotFound, arg)
}

// nodeConfig is the subset of an ESPHome config we care about.
type nodeConfig struct {
	Esphome struct {
		Name string `yaml:"name"`
	} `yaml:"esphome"`
	Substitutions map[string]string `yaml:"substitutions"`
}

// NodeName reads the device name declared in an ESPHome YAML file.
// A name of the form ${var} is resolved through the substitutions
// block. Returns an empty name when the file declares none.
func NodeName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg nodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse config file: %w", err)
	}

	name := cfg.Esphome.Name
	if strings.HasPrefix(name, "${") && strings.HasSuffix(name, "}") {
		key := name[2 : len(name)-1]
		name = cfg.Substitutions[key]
	}
	return name, nil
}
