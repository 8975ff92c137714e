package builtins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dr8co/feint/object"
)

func TestRegistryLoadsAndCachesModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greeting.fi"), []byte("message = \"hi\""), 0o600); err != nil {
		t.Fatalf("writing fixture module: %s", err)
	}

	r := NewRegistry(dir)
	first, err := r.Load("greeting")
	if err != nil {
		t.Fatalf("Load(greeting): %s", err)
	}
	msg, ok := first.Globals["message"].(*object.Str)
	if !ok || msg.Value != "hi" {
		t.Fatalf("greeting.message = %#v, want Str(\"hi\")", first.Globals["message"])
	}

	second, err := r.Load("greeting")
	if err != nil {
		t.Fatalf("second Load(greeting): %s", err)
	}
	if first != second {
		t.Error("Load did not return the cached module on a repeated import")
	}
}

func TestRegistryLoadMissingModule(t *testing.T) {
	r := NewRegistry(t.TempDir())
	if _, err := r.Load("does_not_exist"); err == nil {
		t.Fatal("expected an error loading a module that doesn't exist")
	}
}

func TestRegistryProcModule(t *testing.T) {
	r := NewRegistry(t.TempDir())
	proc, err := r.Load("proc")
	if err != nil {
		t.Fatalf("Load(proc): %s", err)
	}
	pid, ok := proc.Globals["pid"].(*object.Int)
	if !ok {
		t.Fatalf("proc.pid = %#v, want *object.Int", proc.Globals["pid"])
	}
	if pid.Value != int64(os.Getpid()) {
		t.Errorf("proc.pid = %d, want %d", pid.Value, os.Getpid())
	}
}
