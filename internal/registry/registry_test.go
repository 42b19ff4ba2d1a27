package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ezhost/panel/internal/models"
)

func openTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "myServers.json")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r, path
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	r, _ := openTestRegistry(t)
	if len(r.List()) != 0 {
		t.Fatalf("expected empty registry, got %d records", len(r.List()))
	}
}

func TestCreateAssignsDefaults(t *testing.T) {
	r, _ := openTestRegistry(t)

	server, err := r.Create(CreateFields{
		Name:         "survival",
		Directory:    "/srv/survival",
		RCONPassword: "pw-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if server.ID == "" {
		t.Error("expected generated id")
	}
	if server.Status != models.StatusOffline {
		t.Errorf("expected Offline status, got %s", server.Status)
	}
	if server.Icon != models.DefaultIcon {
		t.Errorf("expected default icon, got %s", server.Icon)
	}
}

func TestCreateValidatesName(t *testing.T) {
	r, _ := openTestRegistry(t)

	tests := []struct {
		name    string
		wantErr error
	}{
		{"", ErrInvalidName},
		{strings.Repeat("x", 21), ErrInvalidName},
		{strings.Repeat("x", 20), nil},
	}
	for _, tt := range tests {
		_, err := r.Create(CreateFields{
			Name:         tt.name,
			Directory:    "/srv/" + tt.name,
			RCONPassword: "pw-" + tt.name,
		})
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Create(%q): got %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCreateRejectsDuplicateDirectoryAndPassword(t *testing.T) {
	r, _ := openTestRegistry(t)

	if _, err := r.Create(CreateFields{Name: "a", Directory: "/srv/a", RCONPassword: "pw-a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := r.Create(CreateFields{Name: "b", Directory: "/srv/a", RCONPassword: "pw-b"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate directory: got %v, want ErrConflict", err)
	}

	_, err = r.Create(CreateFields{Name: "b", Directory: "/srv/b", RCONPassword: "pw-a"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate rcon password: got %v, want ErrConflict", err)
	}

	if len(r.List()) != 1 {
		t.Fatalf("failed creates must not mutate the registry, have %d records", len(r.List()))
	}
}

func TestUpdateMetadataOnly(t *testing.T) {
	r, _ := openTestRegistry(t)

	server, err := r.Create(CreateFields{Name: "old", Directory: "/srv/old", RCONPassword: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "renamed"
	updated, err := r.Update(server.ID, UpdateFields{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "renamed" {
		t.Errorf("name not updated: %s", updated.Name)
	}
	if updated.Icon != server.Icon {
		t.Errorf("icon changed unexpectedly: %s", updated.Icon)
	}

	bad := strings.Repeat("x", 21)
	if _, err := r.Update(server.ID, UpdateFields{Name: &bad}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("overlong rename: got %v, want ErrInvalidName", err)
	}
}

func TestDeleteAndGet(t *testing.T) {
	r, _ := openTestRegistry(t)

	server, err := r.Create(CreateFields{Name: "gone", Directory: "/srv/gone", RCONPassword: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Delete(server.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(server.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := r.Delete(server.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	r, path := openTestRegistry(t)

	server, err := r.Create(CreateFields{Name: "keep", Directory: "/srv/keep", Type: "forge", RCONPassword: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.SetStatus(server.ID, models.StatusOnline); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(server.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Status != models.StatusOnline {
		t.Errorf("status not persisted: %s", got.Status)
	}
	if got.RCONPassword != "pw" {
		t.Errorf("rcon password not persisted: %s", got.RCONPassword)
	}
	if got.Type != "forge" {
		t.Errorf("server type not persisted: %q", got.Type)
	}

	// No temp file left behind after the atomic rename.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file still present after persist")
	}
}

func TestReplaceStatusesSingleWrite(t *testing.T) {
	r, path := openTestRegistry(t)

	a, _ := r.Create(CreateFields{Name: "a", Directory: "/srv/a", RCONPassword: "pw-a"})
	b, _ := r.Create(CreateFields{Name: "b", Directory: "/srv/b", RCONPassword: "pw-b"})

	err := r.ReplaceStatuses(map[string]models.ServerStatus{
		a.ID:      models.StatusOnline,
		b.ID:      models.StatusOffline,
		"unknown": models.StatusOnline,
	})
	if err != nil {
		t.Fatalf("ReplaceStatuses: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	gotA, _ := reopened.Get(a.ID)
	if gotA.Status != models.StatusOnline {
		t.Errorf("server a: got %s, want Online", gotA.Status)
	}
	gotB, _ := reopened.Get(b.ID)
	if gotB.Status != models.StatusOffline {
		t.Errorf("server b: got %s, want Offline", gotB.Status)
	}
}

func TestChangeListenerFires(t *testing.T) {
	r, _ := openTestRegistry(t)

	changed := make(chan struct{}, 8)
	r.SetChangeListener(func() { changed <- struct{}{} })

	if _, err := r.Create(CreateFields{Name: "c", Directory: "/srv/c", RCONPassword: "pw"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change listener not called after create")
	}
}
