package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupConfig points WARDGATE_CONFIG at a temp config with its own
// database file and restores the environment on cleanup.
func setupConfig(t *testing.T) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "enroll-test.db")
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
site:
  id: test-door

database:
  path: "` + dbPath + `"
  busy_timeout: 5

logging:
  level: error
  format: text
  output: stdout

security:
  jwt:
    secret: "test-secret-key-at-least-32-characters-long"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalEnv := os.Getenv("WARDGATE_CONFIG")
	t.Cleanup(func() { os.Setenv("WARDGATE_CONFIG", originalEnv) })
	os.Setenv("WARDGATE_CONFIG", configPath)
}

// createIdentity runs the create command and returns the new ID.
func createIdentity(t *testing.T, name string) string {
	t.Helper()

	var out bytes.Buffer
	if err := run(context.Background(), []string{"create", "-name", name}, &out); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fields := strings.Fields(out.String())
	if len(fields) < 3 || !strings.HasPrefix(fields[2], "idn-") {
		t.Fatalf("unexpected create output: %q", out.String())
	}
	return fields[2]
}

func TestCreateAndList(t *testing.T) {
	setupConfig(t)

	id := createIdentity(t, "Alice Smith")

	var out bytes.Buffer
	if err := run(context.Background(), []string{"list"}, &out); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	listing := out.String()
	if !strings.Contains(listing, id) || !strings.Contains(listing, "Alice Smith") {
		t.Errorf("list output missing identity, got:\n%s", listing)
	}
	if !strings.Contains(listing, "1 identities") {
		t.Errorf("list output missing count, got:\n%s", listing)
	}
}

func TestCreate_RequiresName(t *testing.T) {
	setupConfig(t)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"create"}, &out); err == nil {
		t.Fatal("create without -name should fail")
	}
}

func TestFaceEnrollment(t *testing.T) {
	setupConfig(t)
	id := createIdentity(t, "Alice")

	encodingPath := filepath.Join(t.TempDir(), "encoding.json")
	if err := os.WriteFile(encodingPath, []byte(`[0.1, 0.2, 0.3, 0.4]`), 0600); err != nil {
		t.Fatalf("writing encoding file: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{"face", "-identity", id, "-encoding", encodingPath}, &out)
	if err != nil {
		t.Fatalf("face enrollment failed: %v", err)
	}
	if !strings.Contains(out.String(), "4 dimensions") {
		t.Errorf("face output = %q, want dimension count", out.String())
	}
}

func TestFaceEnrollment_UnknownIdentity(t *testing.T) {
	setupConfig(t)

	encodingPath := filepath.Join(t.TempDir(), "encoding.json")
	if err := os.WriteFile(encodingPath, []byte(`[0.1]`), 0600); err != nil {
		t.Fatalf("writing encoding file: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{"face", "-identity", "idn-ghost", "-encoding", encodingPath}, &out)
	if err == nil {
		t.Fatal("face enrollment for unknown identity should fail")
	}
}

func TestFaceEnrollment_BadEncodingFile(t *testing.T) {
	setupConfig(t)
	id := createIdentity(t, "Alice")

	encodingPath := filepath.Join(t.TempDir(), "encoding.json")
	if err := os.WriteFile(encodingPath, []byte(`{"not": "an array"}`), 0600); err != nil {
		t.Fatalf("writing encoding file: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(), []string{"face", "-identity", id, "-encoding", encodingPath}, &out)
	if err == nil {
		t.Fatal("face enrollment with malformed encoding should fail")
	}
}

func TestFingerprintEnrollment(t *testing.T) {
	setupConfig(t)
	alice := createIdentity(t, "Alice")
	bob := createIdentity(t, "Bob")

	templatePath := filepath.Join(t.TempDir(), "template.bin")
	if err := os.WriteFile(templatePath, []byte("raw-sensor-template"), 0600); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"fingerprint", "-identity", alice, "-slot", "3", "-template", templatePath}, &out)
	if err != nil {
		t.Fatalf("fingerprint enrollment failed: %v", err)
	}
	if !strings.Contains(out.String(), "slot 3") {
		t.Errorf("fingerprint output = %q, want slot number", out.String())
	}

	// The same sensor slot cannot belong to two identities
	out.Reset()
	err = run(context.Background(),
		[]string{"fingerprint", "-identity", bob, "-slot", "3", "-template", templatePath}, &out)
	if err == nil {
		t.Fatal("assigning an occupied slot should fail")
	}
}

func TestFingerprintEnrollment_InvalidSlot(t *testing.T) {
	setupConfig(t)
	id := createIdentity(t, "Alice")

	templatePath := filepath.Join(t.TempDir(), "template.bin")
	if err := os.WriteFile(templatePath, []byte("raw"), 0600); err != nil {
		t.Fatalf("writing template file: %v", err)
	}

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"fingerprint", "-identity", id, "-slot", "0", "-template", templatePath}, &out)
	if err == nil {
		t.Fatal("slot 0 should be rejected")
	}
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"frobnicate"}, &out); err == nil {
		t.Fatal("unknown command should fail")
	}
	if !strings.Contains(out.String(), "Commands:") {
		t.Error("unknown command should print usage")
	}
}

func TestMissingCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err == nil {
		t.Fatal("missing command should fail")
	}
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"help"}, &out); err != nil {
		t.Fatalf("help should succeed, got: %v", err)
	}
	if !strings.Contains(out.String(), "wardgate-enroll") {
		t.Error("help output missing program name")
	}
}
