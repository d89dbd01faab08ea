package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lattice != "D3Q19" || cfg.Ranks != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Synthetic == "" && cfg.GeometryYAML == "" {
		t.Fatalf("defaults must pick a geometry source, got neither: %+v", cfg)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `
lattice: D3Q27
ranks: 4
synthetic: S6
report_db: report.sqlite
iolets:
  - kind: pressure
    mean_pressure: 80
  - kind: velocity
    direction: [0, 0, 1]
    speed: 1.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lattice != "D3Q27" || cfg.Ranks != 4 || cfg.Synthetic != "S6" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Iolets) != 2 {
		t.Fatalf("expected 2 iolets, got %d", len(cfg.Iolets))
	}
	if cfg.Iolets[0].Kind != "pressure" || cfg.Iolets[0].MeanPressure != 80 {
		t.Fatalf("unexpected iolet 0: %+v", cfg.Iolets[0])
	}
	if cfg.Iolets[1].Kind != "velocity" || cfg.Iolets[1].Speed != 1.5 {
		t.Fatalf("unexpected iolet 1: %+v", cfg.Iolets[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("lattice: [this is not a string\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateRejectsUnknownLattice(t *testing.T) {
	cfg := defaults()
	cfg.Lattice = "D2Q9"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown lattice")
	}
}

func TestValidateRejectsZeroRanks(t *testing.T) {
	cfg := defaults()
	cfg.Synthetic = "S1"
	cfg.Ranks = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero ranks")
	}
}

func TestValidateRejectsMissingGeometrySource(t *testing.T) {
	cfg := defaults()
	cfg.Synthetic = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when neither geometry_yaml nor synthetic is set")
	}
}

func TestValidateRejectsBothGeometrySources(t *testing.T) {
	cfg := defaults()
	cfg.Synthetic = "S1"
	cfg.GeometryYAML = "geometry.yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when both geometry_yaml and synthetic are set")
	}
}

func schemaPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "..", "schema", "runconfig.schema.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Skipf("schema file not found at %s: %v", abs, err)
	}
	return abs
}

func TestValidateAgainstSchemaAcceptsWellFormedDocument(t *testing.T) {
	doc := map[string]any{
		"lattice":   "D3Q19",
		"ranks":     2,
		"synthetic": "S2",
		"iolets": []any{
			map[string]any{"kind": "pressure", "mean_pressure": 80.0},
		},
	}
	if err := ValidateAgainstSchema(schemaPath(t), doc); err != nil {
		t.Fatalf("ValidateAgainstSchema: %v", err)
	}
}

func TestValidateAgainstSchemaRejectsUnknownIoletKind(t *testing.T) {
	doc := map[string]any{
		"lattice": "D3Q19",
		"ranks":   1,
		"iolets": []any{
			map[string]any{"kind": "teleport"},
		},
	}
	if err := ValidateAgainstSchema(schemaPath(t), doc); err == nil {
		t.Fatal("expected schema validation error for unknown iolet kind")
	}
}

func TestValidateAgainstSchemaRejectsMissingRequiredField(t *testing.T) {
	doc := map[string]any{
		"ranks": 1,
	}
	if err := ValidateAgainstSchema(schemaPath(t), doc); err == nil {
		t.Fatal("expected schema validation error for missing lattice field")
	}
}

func TestValidateAgainstSchemaCompileErrorOnMissingSchemaFile(t *testing.T) {
	if err := ValidateAgainstSchema(filepath.Join(t.TempDir(), "nope.schema.json"), map[string]any{}); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}
