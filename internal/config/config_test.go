package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framecore.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[loop]
target_rate = 29.97
fixed_timestep = false
max_backlog = "250ms"

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loop.TargetRate != 29.97 || cfg.Loop.FixedTimestep {
		t.Fatalf("loop = %+v", cfg.Loop)
	}
	if cfg.Loop.MaxBacklog != 250*time.Millisecond {
		t.Fatalf("max_backlog = %s", cfg.Loop.MaxBacklog)
	}
	if cfg.Loop.SleepGranularity != time.Millisecond {
		t.Fatal("unset key lost its default")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Content.Manifest != "content/scenes.yaml" {
		t.Fatal("content defaults missing")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"zero_rate", "[loop]\ntarget_rate = 0\n", "target_rate"},
		{"negative_backlog", "[loop]\nmax_backlog = \"-1s\"\n", "max_backlog"},
		{"bad_format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"db_without_dsn", "[database]\nenabled = true\ndsn = \"\"\n", "database.dsn"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.body))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("err = %v, want mention of %q", err, c.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error")
	}
}
