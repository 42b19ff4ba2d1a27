package properties

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestReadSkipsCommentsAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.properties")
	writeFile(t, path, "#Minecraft server properties\n#Mon Jan 01 00:00:00 UTC 2024\nmotd=A Minecraft Server\n\nnot-a-pair\nmax-players=20\n")

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d (%v)", m.Len(), m.Keys())
	}
	if v, _ := m.Get("motd"); v != "A Minecraft Server" {
		t.Errorf("motd: %q", v)
	}
	if v, _ := m.Get("max-players"); v != "20" {
		t.Errorf("max-players: %q", v)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.properties"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWriteMergesOntoExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.properties")
	writeFile(t, path, "motd=hello\ndifficulty=easy\n")

	updates := NewMap()
	updates.Set("difficulty", "hard")
	updates.Set("pvp", "false")
	if err := Write(path, updates); err != nil {
		t.Fatalf("Write: %v", err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read back: %v", err)
	}
	if v, _ := m.Get("motd"); v != "hello" {
		t.Errorf("untouched key lost: motd=%q", v)
	}
	if v, _ := m.Get("difficulty"); v != "hard" {
		t.Errorf("difficulty: %q", v)
	}
	if v, _ := m.Get("pvp"); v != "false" {
		t.Errorf("pvp: %q", v)
	}
}

func TestWriteCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.properties")

	updates := NewMap()
	updates.Set("motd", "fresh")
	if err := Write(path, updates); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read back: %v", err)
	}
	if v, _ := m.Get("motd"); v != "fresh" {
		t.Errorf("motd: %q", v)
	}
}

func TestEnsureRCONSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.properties")
	writeFile(t, path, "motd=keep me\nenable-rcon=false\n")

	if err := EnsureRCONSettings(path, 25575, "secret"); err != nil {
		t.Fatalf("EnsureRCONSettings: %v", err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read back: %v", err)
	}
	checks := map[string]string{
		"enable-rcon":   "true",
		"rcon.port":     "25575",
		"rcon.password": "secret",
		"motd":          "keep me",
	}
	for key, want := range checks {
		if got, _ := m.Get(key); got != want {
			t.Errorf("%s: got %q, want %q", key, got, want)
		}
	}
}

func TestReadRAMDefaults(t *testing.T) {
	dir := t.TempDir()

	// Missing file falls back to the default.
	if gb := ReadRAM(filepath.Join(dir, "variables.txt")); gb != DefaultRAMGB {
		t.Errorf("missing file: got %d, want %d", gb, DefaultRAMGB)
	}

	// File without the flag also falls back.
	path := filepath.Join(dir, "variables.txt")
	writeFile(t, path, "-XX:+UseG1GC\n")
	if gb := ReadRAM(path); gb != DefaultRAMGB {
		t.Errorf("missing flag: got %d, want %d", gb, DefaultRAMGB)
	}
}

func TestRAMRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variables.txt")
	writeFile(t, path, "-Xmx4G\n-Xms1G\n-XX:+UseG1GC\n")

	for _, gb := range []int{4, 8, 12, 16} {
		if err := WriteRAM(path, gb); err != nil {
			t.Fatalf("WriteRAM(%d): %v", gb, err)
		}
		if got := ReadRAM(path); got != gb {
			t.Errorf("ReadRAM after WriteRAM(%d): got %d", gb, got)
		}
	}

	// Unrelated flags survive the rewrite.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "-XX:+UseG1GC"; !strings.Contains(string(data), want) {
		t.Errorf("flag %q lost: %q", want, data)
	}
}

func TestWriteRAMMissingFile(t *testing.T) {
	err := WriteRAM(filepath.Join(t.TempDir(), "variables.txt"), 8)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
