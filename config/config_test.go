package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Runner.MemorySize != 1024 {
		t.Errorf("Expected MemorySize=1024, got %d", cfg.Runner.MemorySize)
	}
	if cfg.Runner.MaxTicks != 1_000_000 {
		t.Errorf("Expected MaxTicks=1000000, got %d", cfg.Runner.MaxTicks)
	}
	if !cfg.Runner.DumpRegs {
		t.Error("Expected DumpRegs=true")
	}

	if cfg.Assembler.OutputExtension != ".vex" {
		t.Errorf("Expected OutputExtension=.vex, got %s", cfg.Assembler.OutputExtension)
	}
	if cfg.Assembler.EmitSourceMap {
		t.Error("Expected EmitSourceMap=false")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "vex" && path != "config.toml" {
			t.Errorf("Expected path in vex directory or fallback, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Runner.MemorySize = 4096
	cfg.Runner.MaxTicks = 500
	cfg.Assembler.EmitSourceMap = true
	cfg.Assembler.DataOffset = 0x8000

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Runner.MemorySize != 4096 {
		t.Errorf("Expected MemorySize=4096, got %d", loaded.Runner.MemorySize)
	}
	if loaded.Runner.MaxTicks != 500 {
		t.Errorf("Expected MaxTicks=500, got %d", loaded.Runner.MaxTicks)
	}
	if !loaded.Assembler.EmitSourceMap {
		t.Error("Expected EmitSourceMap=true")
	}
	if loaded.Assembler.DataOffset != 0x8000 {
		t.Errorf("Expected DataOffset=0x8000, got %#x", loaded.Assembler.DataOffset)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Runner.MemorySize != 1024 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[runner]
memory_size = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
