package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/madcok-co/bridgekit/pkg/adapter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adapter.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
name: legacy-users
sourceFormat: soap
targetFormat: json
endpoint: http://legacy.internal/ws
timeout: 5000
unwrapSoap: true
retryPolicy:
  maxRetries: 5
  initialDelay: 200
  maxDelay: 4000
  backoffMultiplier: 3.0
schemaMapping:
  sourceFields:
    userId: id
    userName: name
  transforms:
    - sourceField: name
      targetField: name
      transformType: uppercase
`)

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "legacy-users" || cfg.SourceFormat != "soap" || cfg.TargetFormat != "json" {
		t.Errorf("identity fields = %q %q %q", cfg.Name, cfg.SourceFormat, cfg.TargetFormat)
	}
	if !cfg.UnwrapSOAP {
		t.Error("unwrapSoap not read")
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout())
	}

	if cfg.RetryPolicy == nil {
		t.Fatal("retry policy missing")
	}
	if cfg.RetryPolicy.MaxRetries != 5 || cfg.RetryPolicy.InitialDelayMS != 200 ||
		cfg.RetryPolicy.MaxDelayMS != 4000 || cfg.RetryPolicy.BackoffMultiplier != 3.0 {
		t.Errorf("retry policy = %+v", cfg.RetryPolicy)
	}

	if cfg.Mapping == nil {
		t.Fatal("mapping missing")
	}
	if cfg.Mapping.SourceFields["userId"] != "id" {
		t.Errorf("source fields = %v", cfg.Mapping.SourceFields)
	}
	if len(cfg.Mapping.Transforms) != 1 || cfg.Mapping.Transforms[0].Type != "uppercase" {
		t.Errorf("transforms = %+v", cfg.Mapping.Transforms)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
name: minimal
sourceFormat: xml
targetFormat: json
`)

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.TimeoutMS != 30000 {
		t.Errorf("default timeout = %d, want 30000", cfg.TimeoutMS)
	}
	if cfg.RetryPolicy == nil {
		t.Fatal("default retry policy missing")
	}
	if cfg.RetryPolicy.MaxRetries != 3 || cfg.RetryPolicy.InitialDelayMS != 1000 ||
		cfg.RetryPolicy.MaxDelayMS != 10000 || cfg.RetryPolicy.BackoffMultiplier != 2.0 {
		t.Errorf("default retry policy = %+v", cfg.RetryPolicy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"missing name",
			"sourceFormat: xml\ntargetFormat: json\n",
		},
		{
			"unknown source format",
			"name: x\nsourceFormat: avro\ntargetFormat: json\n",
		},
		{
			"unknown target format",
			"name: x\nsourceFormat: xml\ntargetFormat: avro\n",
		},
		{
			"malformed endpoint",
			"name: x\nsourceFormat: xml\ntargetFormat: json\nendpoint: not-a-url\n",
		},
		{
			"max delay below initial delay",
			"name: x\nsourceFormat: xml\ntargetFormat: json\nretryPolicy:\n  maxRetries: 3\n  initialDelay: 5000\n  maxDelay: 1000\n  backoffMultiplier: 2.0\n",
		},
		{
			"multiplier below one",
			"name: x\nsourceFormat: xml\ntargetFormat: json\nretryPolicy:\n  maxRetries: 3\n  initialDelay: 100\n  maxDelay: 1000\n  backoffMultiplier: 0.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	l := NewLoader("unused.yaml")
	cfg := &adapter.Config{
		Name:         "ok",
		SourceFormat: "csv",
		TargetFormat: "json",
	}
	if err := l.Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
