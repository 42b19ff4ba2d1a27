// Package properties reads and writes the two plain-text config files a
// Minecraft installation carries: the key=value server.properties file and
// the variables.txt file holding the JVM -Xmx RAM flag.
package properties

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotFound is returned when the target file does not exist.
var ErrNotFound = errors.New("file not found")

// DefaultRAMGB is assumed when variables.txt is absent or unparsable.
const DefaultRAMGB = 4

var ramFlagRe = regexp.MustCompile(`-Xmx(\d+)G`)

// Map is an ordered key=value mapping. Keys iterate in first-seen order so
// a rewrite keeps the file layout stable for diffing.
type Map struct {
	keys   []string
	values map[string]string
}

// NewMap returns an empty properties map.
func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or replaces a key.
func (m *Map) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Merge copies every key of other onto m, preserving m's ordering for
// existing keys.
func (m *Map) Merge(other *Map) {
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
}

// AsJSON returns a plain map for API responses.
func (m *Map) AsJSON() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// FromJSON builds a Map from a plain map with sorted-input order supplied
// by the caller's range; insertion order follows Go map iteration and is
// only used for brand-new keys during a merge.
func FromJSON(in map[string]string) *Map {
	m := NewMap()
	for k, v := range in {
		m.Set(k, v)
	}
	return m
}

// Read parses a key=value properties file. Comment lines starting with #
// and malformed lines are skipped; they are not preserved on write.
func Read(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read properties: %w", err)
	}

	m := NewMap()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		m.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return m, nil
}

// Write merges updates onto the existing file contents (keys absent from
// the update survive) and rewrites the file in full.
func Write(path string, updates *Map) error {
	merged := NewMap()
	if existing, err := Read(path); err == nil {
		merged.Merge(existing)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	merged.Merge(updates)

	var b strings.Builder
	for _, k := range merged.keys {
		fmt.Fprintf(&b, "%s=%s\n", k, merged.values[k])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write properties: %w", err)
	}
	return nil
}

// EnsureRCONSettings forces the RCON stanza a managed server needs into
// its properties file, creating the file with sane defaults when missing.
func EnsureRCONSettings(path string, port int, password string) error {
	updates := NewMap()
	updates.Set("enable-rcon", "true")
	updates.Set("rcon.port", strconv.Itoa(port))
	updates.Set("rcon.password", password)
	return Write(path, updates)
}

// ReadRAM parses the -Xmx<N>G token from a variables file. A missing file
// or missing flag yields DefaultRAMGB.
func ReadRAM(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultRAMGB
	}
	match := ramFlagRe.FindStringSubmatch(string(data))
	if match == nil {
		return DefaultRAMGB
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return DefaultRAMGB
	}
	return n
}

// WriteRAM replaces the -Xmx<N>G token in place. Fails with ErrNotFound
// when the variables file does not exist; RAM changes never create it.
func WriteRAM(path string, gb int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read variables file: %w", err)
	}

	updated := ramFlagRe.ReplaceAllString(string(data), fmt.Sprintf("-Xmx%dG", gb))
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write variables file: %w", err)
	}
	return nil
}
