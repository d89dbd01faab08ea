package geomio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hemolattice/internal/config"
)

// document mirrors schema/geometry.schema.json's field names, decoded
// with yaml.v3 so the same file can be either YAML or JSON (JSON is a
// syntactic subset of YAML 1.2, which yaml.v3 accepts).
type document struct {
	BlockCounts [3]uint16   `yaml:"block_counts"`
	BlockSize   uint16      `yaml:"block_size"`
	Blocks      []blockDoc  `yaml:"blocks"`
}

type blockDoc struct {
	Sites []siteDoc `yaml:"sites"`
}

type siteDoc struct {
	TargetProcessor      int32     `yaml:"target_processor"`
	Type                 uint32    `yaml:"type"`
	WallIntersection     uint32    `yaml:"wall_intersection"`
	IoletIntersection    uint32    `yaml:"iolet_intersection"`
	IoletID              int32     `yaml:"iolet_id"`
	WallNormalAvailable  bool      `yaml:"wall_normal_available"`
	WallNormal           [3]float32 `yaml:"wall_normal"`
	Links                []linkDoc `yaml:"links"`
}

type linkDoc struct {
	CutType          int     `yaml:"cut_type"`
	DistanceToWall   float64 `yaml:"distance_to_wall"`
	HasWallIntersect bool    `yaml:"has_wall_intersect"`
}

// LoadFile reads a geometry description from path (YAML or JSON),
// validates it against schemaPath if non-empty, and decodes it into a
// GeometryReadResult.
func LoadFile(path, schemaPath string) (*GeometryReadResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if schemaPath != "" {
		var raw any
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("geometry %s: %w", path, err)
		}
		if err := config.ValidateAgainstSchema(schemaPath, raw); err != nil {
			return nil, fmt.Errorf("geometry %s: %w", path, err)
		}
	}

	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("geometry %s: %w", path, err)
	}

	blocks := make([]BlockReadResult, len(doc.Blocks))
	for i, bd := range doc.Blocks {
		if len(bd.Sites) == 0 {
			continue
		}
		sites := make([]SiteReadResult, len(bd.Sites))
		for j, sd := range bd.Sites {
			links := make([]LinkReadResult, len(sd.Links))
			for k, ld := range sd.Links {
				links[k] = LinkReadResult{
					CutType:          CutType(ld.CutType),
					DistanceToWall:   ld.DistanceToWall,
					HasWallIntersect: ld.HasWallIntersect,
				}
			}
			sites[j] = SiteReadResult{
				TargetProcessor:     sd.TargetProcessor,
				Type:                SiteType(sd.Type),
				WallIntersection:    sd.WallIntersection,
				IoletIntersection:   sd.IoletIntersection,
				IoletID:             sd.IoletID,
				WallNormalAvailable: sd.WallNormalAvailable,
				WallNormal:          sd.WallNormal,
				Links:               links,
			}
		}
		blocks[i] = BlockReadResult{Sites: sites}
	}

	return &GeometryReadResult{
		BlockCounts: doc.BlockCounts,
		BlockSize:   doc.BlockSize,
		Blocks:      blocks,
	}, nil
}
