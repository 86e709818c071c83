package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvReadPassword_PipedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input")
	if err := os.WriteFile(path, []byte("s3cret\nagain\n"), 0600); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	env := &Env{In: f}
	var prompts bytes.Buffer
	first, err := env.ReadPassword(&prompts, "Password: ")
	if err != nil {
		t.Fatalf("ReadPassword: %v", err)
	}
	second, err := env.ReadPassword(&prompts, "Confirm password: ")
	if err != nil {
		t.Fatalf("ReadPassword: %v", err)
	}

	if first != "s3cret" || second != "again" {
		t.Errorf("expected lines from the file, got %q and %q", first, second)
	}
	if prompts.String() != "Password: Confirm password: " {
		t.Errorf("unexpected prompts %q", prompts.String())
	}
}

func TestEnvReadPassword_EOF(t *testing.T) {
	env := &Env{In: strings.NewReader("")}
	var prompts bytes.Buffer
	if _, err := env.ReadPassword(&prompts, "Password: "); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if prompts.String() != "Password: \n" {
		t.Errorf("unexpected prompts %q", prompts.String())
	}
}
