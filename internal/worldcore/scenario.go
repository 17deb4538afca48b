package worldcore

import (
	"gopkg.in/yaml.v3"

	"github.com/domino-sim/domino/internal/fixedpoint"
)

// ScenarioMeta mirrors Meta but in the plain, human-editable units a
// scenario author writes (float vertical bounds rather than raw Q16.16
// integers) — the conversion to Meta happens once, at load, never on
// the simulation path.
type ScenarioMeta struct {
	Seed            uint64  `yaml:"seed"`
	WorldSizeM      uint32  `yaml:"world_size_m"`
	VerticalMin     float64 `yaml:"vertical_min"`
	VerticalMax     float64 `yaml:"vertical_max"`
	CoreVersion     uint32  `yaml:"core_version"`
	SuiteVersion    uint32  `yaml:"suite_version"`
	CompatProfileID uint32  `yaml:"compat_profile_id"`
}

// ScenarioFixtures names the per-subsystem fixture file backing each
// field domain a scenario wires into its World. An empty string means
// that subsystem isn't part of this scenario.
type ScenarioFixtures struct {
	Energy      string `yaml:"energy"`
	Heat        string `yaml:"heat"`
	Fluid       string `yaml:"fluid"`
	Information string `yaml:"information"`
	Crafting    string `yaml:"crafting"`
}

// ScenarioChunk names one chunk's grid position, ahead of any
// subsystem populating its payload.
type ScenarioChunk struct {
	ChunkID uint32 `yaml:"chunk_id"`
	Cx      int32  `yaml:"cx"`
	Cy      int32  `yaml:"cy"`
}

// Scenario is the YAML descriptor `cmd/domino world` reads to learn
// which fixtures make up one World and how its chunk grid is laid out.
// It is ambient CLI configuration, parsed once before any resolver
// call and never re-read mid-simulation — it never appears on a
// save file or in the world hash.
type Scenario struct {
	Meta     ScenarioMeta     `yaml:"meta"`
	Fixtures ScenarioFixtures `yaml:"fixtures"`
	Chunks   []ScenarioChunk  `yaml:"chunks"`
}

// ParseScenario decodes a scenario YAML document.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// WorldMeta converts the scenario's human-authored meta into the
// fixed-point Meta a World actually carries.
func (s Scenario) WorldMeta() Meta {
	return Meta{
		Seed:            s.Meta.Seed,
		WorldSizeM:      s.Meta.WorldSizeM,
		VerticalMin:     fixedpoint.FromFloat64(s.Meta.VerticalMin),
		VerticalMax:     fixedpoint.FromFloat64(s.Meta.VerticalMax),
		CoreVersion:     s.Meta.CoreVersion,
		SuiteVersion:    s.Meta.SuiteVersion,
		CompatProfileID: s.Meta.CompatProfileID,
	}
}

// WorldChunks converts the scenario's chunk grid entries into Chunk values
// ready for World.AddChunk.
func (s Scenario) WorldChunks() []Chunk {
	chunks := make([]Chunk, 0, len(s.Chunks))
	for _, c := range s.Chunks {
		chunks = append(chunks, Chunk{ChunkID: c.ChunkID, Cx: c.Cx, Cy: c.Cy})
	}
	return chunks
}
