package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSteps(t *testing.T) {
	cases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 1},
		{args: []string{"3"}, want: 3},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"two"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseSteps(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSteps(%v): expected error", tc.args)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseSteps(%v) = %d, %v", tc.args, got, err)
		}
	}
}

func TestParseVersion(t *testing.T) {
	if got, err := parseVersion(" 1789520400 "); err != nil || got != 1789520400 {
		t.Fatalf("unexpected version %d, %v", got, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected negative version to fail")
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")

	got, err := resolveMigrationsDir("", missing, dir)
	if err != nil || got != dir {
		t.Fatalf("expected fallback dir %q, got %q, %v", dir, got, err)
	}

	file := filepath.Join(dir, "1789516800_create_catalog.up.sql")
	if err := os.WriteFile(file, []byte("SELECT 1;"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := resolveMigrationsDir(file, missing); err == nil {
		t.Fatalf("expected a file path to be rejected")
	}
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"down [steps=1]", "force <version>", "goto <version>", "up", "version"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("usage missing %q:\n%s", want, buf.String())
		}
	}
}
