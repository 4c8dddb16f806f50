package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

func TestLoadFullConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "model.yaml")

	content := `order: 3
smoothing:
  method: add-alpha
  alpha: 0.5
seed: 42
vocabulary:
  unknown: 10
  start: 11
  end: 12
generation:
  max_length: 50
store:
  driver: memory
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Order != 3 {
		t.Errorf("Expected order 3, got %d", cfg.Order)
	}
	if cfg.Smoothing.Method != "add-alpha" || cfg.Smoothing.Alpha != 0.5 {
		t.Errorf("Unexpected smoothing: %+v", cfg.Smoothing)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("Expected seed 42, got %v", cfg.Seed)
	}
	want := vocab.Reserved{Unknown: 10, Start: 11, End: 12}
	if cfg.Vocabulary != want {
		t.Errorf("Expected vocabulary %+v, got %+v", want, cfg.Vocabulary)
	}
	if cfg.Generation.MaxLength != 50 {
		t.Errorf("Expected max_length 50, got %d", cfg.Generation.MaxLength)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %q", cfg.Store.Driver)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("order: 4\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	def := Default()
	if cfg.Order != 4 {
		t.Errorf("Expected order 4, got %d", cfg.Order)
	}
	if cfg.Vocabulary != def.Vocabulary {
		t.Errorf("Vocabulary should keep defaults, got %+v", cfg.Vocabulary)
	}
	if cfg.Smoothing != def.Smoothing {
		t.Errorf("Smoothing should keep defaults, got %+v", cfg.Smoothing)
	}
	if cfg.Seed != nil {
		t.Error("Seed should be unset")
	}
	if cfg.Store != def.Store {
		t.Errorf("Store should keep defaults, got %+v", cfg.Store)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Empty config should use defaults: %v", err)
	}
	if cfg.Order != 2 {
		t.Errorf("Expected default order 2, got %d", cfg.Order)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero order", "order: 0\n"},
		{"unknown method", "smoothing:\n  method: kneser-ney\n"},
		{"zero alpha", "smoothing:\n  method: add-alpha\n  alpha: 0\n"},
		{"shared ids", "vocabulary:\n  unknown: 0\n  start: 1\n  end: 1\n"},
		{"negative max length", "generation:\n  max_length: -1\n"},
		{"unknown driver", "store:\n  driver: postgres\n"},
		{"sqlite without path", "store:\n  driver: sqlite\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("order: [unclosed\n"))
	if err == nil {
		t.Error("Malformed YAML should fail")
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("/nonexistent/model.yaml")
	if err == nil {
		t.Error("Should error on nonexistent config")
	}
}
