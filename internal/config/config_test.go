package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID: "test-host-abc",
		LogDir: "/home/user/.local/share/dbexport/log",
		Broker: BrokerConfig{DSN: "tcp://localhost:9999"},
		Export: ExportConfig{
			TargetDir:      "/backup/target",
			Zip:            true,
			MaxIncremental: 7,
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/dbexport/db"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HostID != original.HostID {
		t.Errorf("HostID = %q, want %q", got.HostID, original.HostID)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Broker.DSN != original.Broker.DSN {
		t.Errorf("Broker.DSN = %q, want %q", got.Broker.DSN, original.Broker.DSN)
	}
	if got.Export.TargetDir != original.Export.TargetDir {
		t.Errorf("Export.TargetDir = %q, want %q", got.Export.TargetDir, original.Export.TargetDir)
	}
	if !got.Export.Zip {
		t.Error("Export.Zip = false, want true")
	}
	if got.Export.MaxIncremental != 7 {
		t.Errorf("Export.MaxIncremental = %d, want 7", got.Export.MaxIncremental)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Database.DataDir != original.Database.DataDir {
		t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, original.Database.DataDir)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/dbexport")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.LogDir != "/data/dbexport/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/dbexport/log")
	}
	if cfg.Export.TargetDir != "/data/dbexport/backups" {
		t.Errorf("Export.TargetDir = %q, want %q", cfg.Export.TargetDir, "/data/dbexport/backups")
	}
	if cfg.Export.MaxIncremental != 7 {
		t.Errorf("Export.MaxIncremental = %d, want 7", cfg.Export.MaxIncremental)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dbexport.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dbexport.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "dbexport.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.HostID != "read-test" {
			t.Errorf("HostID = %q, want %q", got.HostID, "read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/dbexport.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
