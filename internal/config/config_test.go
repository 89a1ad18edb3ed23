package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HostID:  "test-host-abc",
		BaseDir: "/home/user/.local/share/vsnap",
		LogDir:  "/home/user/.local/share/vsnap/log",
		Journal: JournalConfig{Type: "sqlite", DataDir: "/home/user/.local/share/vsnap/db"},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.log", ".git"},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/vsnap/keys/vsnap.pub",
			PrivateKeyPath: "/home/user/.local/share/vsnap/keys/vsnap.key",
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
			{Type: "s3", Name: "offsite", S3Bucket: "snaps", S3Region: "eu-north-1", S3Prefix: "vsnap"},
		},
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
	if got.Journal != original.Journal {
		t.Errorf("Journal = %+v, want %+v", got.Journal, original.Journal)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if len(got.Vaults) != 2 {
		t.Fatalf("len(Vaults) = %d, want 2", len(got.Vaults))
	}
	if got.Vaults[0] != original.Vaults[0] {
		t.Errorf("Vaults[0] = %+v, want %+v", got.Vaults[0], original.Vaults[0])
	}
	if got.Vaults[1].S3Bucket != "snaps" {
		t.Errorf("Vaults[1].S3Bucket = %q, want %q", got.Vaults[1].S3Bucket, "snaps")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("host-1", "/data/vsnap")

	if cfg.HostID != "host-1" {
		t.Errorf("HostID = %q, want %q", cfg.HostID, "host-1")
	}
	if cfg.LogDir != "/data/vsnap/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/vsnap/log")
	}
	if cfg.Journal.Type != "sqlite" || cfg.Journal.DataDir != "/data/vsnap/db" {
		t.Errorf("Journal = %+v, want sqlite in /data/vsnap/db", cfg.Journal)
	}
	if cfg.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want %q", cfg.Encryption.Type, "none")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/vsnap/keys/vsnap.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/vsnap/keys/vsnap.key")
	}
	if len(cfg.Vaults) != 0 {
		t.Errorf("len(Vaults) = %d, want 0", len(cfg.Vaults))
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "vsnap.toml")

		if err := Init(path, NewConfig("h1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vsnap.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("reads existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "vsnap.toml")
		cfg := NewConfig("from-file", dir)
		cfg.Journal = JournalConfig{Type: "memory"}
		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := Load(path, NewConfig("fallback", dir))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.HostID != "from-file" {
			t.Errorf("HostID = %q, want %q", got.HostID, "from-file")
		}
		if got.Journal.Type != "memory" {
			t.Errorf("Journal.Type = %q, want %q", got.Journal.Type, "memory")
		}
	})

	t.Run("falls back when missing", func(t *testing.T) {
		dir := t.TempDir()
		fallback := NewConfig("fallback", dir)

		got, err := Load(filepath.Join(dir, "missing.toml"), fallback)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != fallback {
			t.Error("Load() did not return the fallback config")
		}
	})

	t.Run("reports malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vsnap.toml")
		os.WriteFile(path, []byte("host_id = [unterminated"), 0644)

		if _, err := Load(path, nil); err == nil {
			t.Fatal("Load() expected error for malformed file")
		}
	})
}
