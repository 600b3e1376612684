package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sample = `
app:
  name: gorecover
  debug: true
modules:
  recovery:
    drift_window: 50
    code_valid_seconds: 30
    handoff_ttl_minutes: 10
    cors: " http://a.test , ,http://b.test"
    service_keys: ["k1", " k2 ", ""]
secret:
  key: %s
`

func TestNewViperFromBytes(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("0123456789"))
	cfg, err := NewViperFromBytes("yaml", []byte(fmt.Sprintf(sample, raw)))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetString("app.name"); got != "gorecover" {
		t.Fatalf("GetString = %q", got)
	}
	if !cfg.GetBool("app.debug") {
		t.Fatal("GetBool = false")
	}
	if got := cfg.GetInt("modules.recovery.drift_window"); got != 50 {
		t.Fatalf("GetInt = %d", got)
	}
	if got := cfg.GetSecond("modules.recovery.code_valid_seconds"); got != 30*time.Second {
		t.Fatalf("GetSecond = %s", got)
	}
	if got := cfg.GetMinute("modules.recovery.handoff_ttl_minutes"); got != 10*time.Minute {
		t.Fatalf("GetMinute = %s", got)
	}
	if got := cfg.GetArray("modules.recovery.cors"); !reflect.DeepEqual(got, []string{"http://a.test", "http://b.test"}) {
		t.Fatalf("GetArray = %#v", got)
	}
	if got := string(cfg.GetBinary("secret.key")); got != "0123456789" {
		t.Fatalf("GetBinary = %q", got)
	}
	if got := cfg.GetArray("modules.recovery.service_keys"); !reflect.DeepEqual(got, []string{"k1", "k2"}) {
		t.Fatalf("GetArray(list) = %#v", got)
	}
	if got := cfg.GetArray("missing.key"); len(got) != 0 {
		t.Fatalf("GetArray(missing) = %#v", got)
	}
}

func TestNewViperFromBytes_EnvOverride(t *testing.T) {
	t.Setenv("GORECOVER_APP_NAME", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(fmt.Sprintf(sample, `""`)))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	if got := cfg.GetString("app.name"); got != "from-env" {
		t.Fatalf("GetString = %q, want env override", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	t.Parallel()

	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatal("expected error for empty config type")
	}
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte("app:\n  name: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewViper(file)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	defer cfg.Close()

	if got := cfg.GetString("app.name"); got != "from-file" {
		t.Fatalf("GetString = %q", got)
	}
}
