package geomio

import (
	"os"
	"path/filepath"
	"testing"

	"hemolattice/internal/lattice"
)

func TestLoadFileYAMLRoundTrip(t *testing.T) {
	doc := `
block_counts: [1, 1, 1]
block_size: 1
blocks:
  - sites:
      - target_processor: 0
        type: 0
        iolet_id: -1
        links: []
`
	path := filepath.Join(t.TempDir(), "geom.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if g.BlockCounts != [3]uint16{1, 1, 1} {
		t.Fatalf("block counts = %v", g.BlockCounts)
	}
	if len(g.Blocks) != 1 || len(g.Blocks[0].Sites) != 1 {
		t.Fatalf("unexpected blocks: %+v", g.Blocks)
	}
	if g.Blocks[0].Sites[0].Type != FLUID {
		t.Fatalf("expected FLUID site, got %v", g.Blocks[0].Sites[0].Type)
	}
}

func TestLoadFileJSONAcceptedByYAMLDecoder(t *testing.T) {
	doc := `{"block_counts":[1,1,1],"block_size":1,"blocks":[{"sites":[{"target_processor":0,"type":1,"iolet_id":-1,"links":[]}]}]}`
	path := filepath.Join(t.TempDir(), "geom.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if g.Blocks[0].Sites[0].Type != WALL {
		t.Fatalf("expected WALL site, got %v", g.Blocks[0].Sites[0].Type)
	}
}

func TestLoadFileValidatesAgainstSchema(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "..", "schema", "geometry.schema.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(schemaPath); err != nil {
		t.Skipf("schema file not found at %s: %v", schemaPath, err)
	}

	valid := `
block_counts: [1, 1, 1]
block_size: 1
blocks:
  - sites:
      - target_processor: 0
        type: 0
`
	path := filepath.Join(t.TempDir(), "valid.yaml")
	os.WriteFile(path, []byte(valid), 0o644)
	if _, err := LoadFile(path, schemaPath); err != nil {
		t.Fatalf("expected valid document to pass schema validation, got %v", err)
	}

	invalid := `
block_counts: [1, 1]
block_size: 1
blocks: []
`
	badPath := filepath.Join(t.TempDir(), "invalid.yaml")
	os.WriteFile(badPath, []byte(invalid), 0o644)
	if _, err := LoadFile(badPath, schemaPath); err == nil {
		t.Fatal("expected schema validation error for short block_counts")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSyntheticS1IsSingleRankCube(t *testing.T) {
	desc := lattice.D3Q19
	g := SyntheticS1(desc)
	if len(g.Blocks) != 1 || len(g.Blocks[0].Sites) != 8 {
		t.Fatalf("expected one block with 8 sites, got %+v", g.Blocks)
	}
	for _, s := range g.Blocks[0].Sites {
		if s.TargetProcessor != 0 || s.Type != FLUID {
			t.Fatalf("unexpected site %+v", s)
		}
		if len(s.Links) != desc.Q()-1 {
			t.Fatalf("expected %d links, got %d", desc.Q()-1, len(s.Links))
		}
	}
}

func TestSyntheticS2IsTwoAdjacentRanks(t *testing.T) {
	g := SyntheticS2(lattice.D3Q19)
	if g.BlockCounts != [3]uint16{2, 1, 1} {
		t.Fatalf("block counts = %v", g.BlockCounts)
	}
	if g.Blocks[0].Sites[0].TargetProcessor != 0 || g.Blocks[1].Sites[0].TargetProcessor != 1 {
		t.Fatalf("expected ranks 0 and 1, got %+v", g.Blocks)
	}
}

func TestSyntheticS3HasWallCutLink(t *testing.T) {
	g := SyntheticS3(lattice.D3Q19)
	s := g.Blocks[0].Sites[0]
	if bucket, ok := s.Type.CollisionBucket(); !ok || bucket != 1 {
		t.Fatalf("expected WALL bucket 1, got %d ok=%v", bucket, ok)
	}
	if s.WallIntersection&1 == 0 {
		t.Fatal("expected bit 0 set in wall intersection mask")
	}
	if !s.Links[0].HasWallIntersect || s.Links[0].CutType != CutWall {
		t.Fatalf("expected link 0 to be a wall cut, got %+v", s.Links[0])
	}
}

func TestSyntheticS4IsInletWallCompound(t *testing.T) {
	g := SyntheticS4(lattice.D3Q19)
	s := g.Blocks[0].Sites[0]
	bucket, ok := s.Type.CollisionBucket()
	if !ok || bucket != 4 {
		t.Fatalf("expected INLET|WALL bucket 4, got %d ok=%v", bucket, ok)
	}
	if s.IoletID != 0 {
		t.Fatalf("expected iolet id 0, got %d", s.IoletID)
	}
}

func TestSyntheticS5IsSingleSiteUniverse(t *testing.T) {
	g := SyntheticS5(lattice.D3Q19)
	if g.BlockCounts != [3]uint16{1, 1, 1} {
		t.Fatalf("expected 1x1x1 universe, got %v", g.BlockCounts)
	}
	if len(g.Blocks) != 1 || len(g.Blocks[0].Sites) != 1 {
		t.Fatalf("expected single fluid site, got %+v", g.Blocks)
	}
}

func TestSyntheticS6HasThreeMutuallyAdjacentRanks(t *testing.T) {
	g := SyntheticS6(lattice.D3Q19)
	if g.BlockCounts != [3]uint16{2, 2, 1} {
		t.Fatalf("block counts = %v", g.BlockCounts)
	}
	nonEmpty := g.NonEmptyBlockCoords()
	if len(nonEmpty) != 4 {
		t.Fatalf("expected 4 non-empty blocks (3 fluid + 1 solid), got %d", len(nonEmpty))
	}
	ranks := map[int32]bool{}
	for _, bc := range nonEmpty {
		s := g.Blocks[g.BlockGmyIndex(bc)].Sites[0]
		if s.TargetProcessor != TargetSolid {
			ranks[s.TargetProcessor] = true
		}
	}
	if len(ranks) != 3 {
		t.Fatalf("expected ranks 0,1,2 present, got %v", ranks)
	}
}
