package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestNewReleaseRespectsConfiguredLevel(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Level:    "warn",
		Dir:      tmpDir,
		Filename: "level.log",
	}
	log := New("release", cfg)
	log.Info("ledger-info-hidden")
	log.Warn("ledger-warn-visible")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	if strings.Contains(string(content), "ledger-info-hidden") {
		t.Fatalf("info entry should be filtered at warn level, got=%s", string(content))
	}
	if !strings.Contains(string(content), "ledger-warn-visible") {
		t.Fatalf("expected warn entry in log, got=%s", string(content))
	}
}

func TestResolveLevelFallsBackOnInvalidInput(t *testing.T) {
	if got := resolveLevel("nonsense", false).Level(); got.String() != "info" {
		t.Fatalf("expected info fallback, got %s", got)
	}
	if got := resolveLevel("", true).Level(); got.String() != "debug" {
		t.Fatalf("expected debug level in debug mode, got %s", got)
	}
	if got := resolveLevel("ERROR", true).Level(); got.String() != "error" {
		t.Fatalf("expected explicit error level, got %s", got)
	}
}

func TestNewReleaseTagsServiceAndComponent(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "fields.log"})
	log.Named("notify").Info("dispatch-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "fields.log"))
	if err != nil {
		t.Fatalf("read fields log failed: %v", err)
	}
	if !strings.Contains(string(content), `"service":"realty-ledger"`) {
		t.Fatalf("expected service field, got=%s", string(content))
	}
	if !strings.Contains(string(content), `"component":"notify"`) {
		t.Fatalf("expected component field, got=%s", string(content))
	}
}
