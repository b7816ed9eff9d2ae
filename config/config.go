// Package config holds the tunables for octree and PVS building.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Octree build settings.
type Octree struct {
	// Nodes with at most this many polygons become leaves with a mini BSP.
	LeafThreshold int `yaml:"leaf_threshold"`

	// Nodes at this depth become leaves regardless of their polygon count.
	MaxDepth int `yaml:"max_depth"`

	// Split candidates are sampled within (max-min)/CenterNeighborhood of
	// the node midpoint.
	CenterNeighborhood float32 `yaml:"center_neighborhood"`

	// Offset added to a split candidate before counting the polygons it
	// would split.
	CenterProbe float32 `yaml:"center_probe"`

	// Opaque mode value stored in the octree cache.
	Mode int `yaml:"mode"`
}

// PVS build settings. Each flag enables one optimisation or refinement of
// the PVS builder.
type PVS struct {
	// Run the solid boundaries only pass over nearby nodes before the full
	// pass.
	Pass1 bool `yaml:"pass1"`

	// Insert the outline of an occluder node whose own PVS cannot see the
	// occludee instead of its contents (full pass only).
	SolidNodeOpt bool `yaml:"solid_node_opt"`

	// Compute per side solid masks for every node and use their solid
	// regions as occluders.
	SolidSpaceOpt bool `yaml:"solid_space_opt"`

	// Treat adjacent nodes as visible unless the shared side is solid.
	AdjacentNodes bool `yaml:"adjacent_nodes"`

	// Use individual polygons as occluders in the full pass.
	Polygons bool `yaml:"polygons"`

	// Run the ray sampling pass that records really visible nodes and
	// restores any of them culled by later passes.
	QAD bool `yaml:"qad"`

	// Resolution of the square occlusion buffer used per visibility test.
	Resolution int `yaml:"resolution"`

	// Distance the projection plane is moved into the viewer box.
	PlaneInset float32 `yaml:"plane_inset"`

	// Amount the projection rectangle is grown before building the corner
	// frustums.
	FrustumExpand float32 `yaml:"frustum_expand"`

	// Inset of the side rectangles used when computing solid masks.
	SolidMaskInset float32 `yaml:"solid_mask_inset"`

	// Maximum node distance tested in pass 1, as a fraction of the world
	// size.
	Pass1Fraction float32 `yaml:"pass1_fraction"`

	// Maximum node distance tested in pass 2, as a multiple of the world
	// size.
	Pass2Factor float32 `yaml:"pass2_factor"`
}

// Occlusion accumulator settings.
type Occlusion struct {
	// One of cbuffer, solidbsp, covtree or quadtree.
	Kind string `yaml:"kind"`

	// Depth of the hierarchical accumulators.
	Depth int `yaml:"depth"`
}

// The full build configuration.
type Config struct {
	Octree    Octree    `yaml:"octree"`
	PVS       PVS       `yaml:"pvs"`
	Occlusion Occlusion `yaml:"occlusion"`
	LogLevel  string    `yaml:"log_level"`

	// Per module level overrides keyed by logger name, e.g. "pvs: debug".
	LogModules map[string]string `yaml:"log_modules,omitempty"`
}

// Get the default configuration.
func Default() *Config {
	return &Config{
		Octree: Octree{
			LeafThreshold:      10,
			MaxDepth:           32,
			CenterNeighborhood: 5,
			CenterProbe:        0.1,
		},
		PVS: PVS{
			Pass1:          true,
			SolidNodeOpt:   true,
			SolidSpaceOpt:  true,
			AdjacentNodes:  true,
			Polygons:       true,
			Resolution:     1024,
			PlaneInset:     0.01,
			FrustumExpand:  0.2,
			SolidMaskInset: 0.01,
			Pass1Fraction:  0.1,
			Pass2Factor:    2,
		},
		Occlusion: Occlusion{
			Kind:  "cbuffer",
			Depth: 6,
		},
		LogLevel: "notice",
	}
}

// Load a configuration file. Values missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Check configuration values.
func (c *Config) Validate() error {
	switch {
	case c.Octree.LeafThreshold < 0:
		return fmt.Errorf("octree.leaf_threshold must be >= 0; got %d", c.Octree.LeafThreshold)
	case c.Octree.MaxDepth < 1:
		return fmt.Errorf("octree.max_depth must be >= 1; got %d", c.Octree.MaxDepth)
	case c.Octree.CenterNeighborhood <= 0:
		return fmt.Errorf("octree.center_neighborhood must be > 0; got %v", c.Octree.CenterNeighborhood)
	case c.PVS.Resolution < 2:
		return fmt.Errorf("pvs.resolution must be >= 2; got %d", c.PVS.Resolution)
	case c.Occlusion.Depth < 1 || c.Occlusion.Depth > 12:
		return fmt.Errorf("occlusion.depth must be in [1, 12]; got %d", c.Occlusion.Depth)
	}
	return nil
}

// Serialize the configuration.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
