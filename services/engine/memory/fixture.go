package memory

import (
	"context"
	"fmt"
	"io"

	"ldserver/api/services/files"

	yaml "gopkg.in/yaml.v2"
)

// Fixture describes reference panels with precomputed statistics.
type Fixture struct {
	Panels []PanelFixture `yaml:"panels"`
}

type PanelFixture struct {
	// logical paths of genotype or score files served by this panel
	Files        []string         `yaml:"files"`
	Samples      int              `yaml:"samples"`
	SigmaSquared float64          `yaml:"sigma_squared"`
	Variants     []VariantFixture `yaml:"variants"`
	Pairs        []PairFixture    `yaml:"pairs"`
}

type VariantFixture struct {
	Id       string  `yaml:"id"`
	AltFreq  float64 `yaml:"alt_freq"`
	Pvalue   float64 `yaml:"pvalue"`
	Score    float64 `yaml:"score"`
	Variance float64 `yaml:"variance"`
}

type PairFixture struct {
	A   string   `yaml:"a"`
	B   string   `yaml:"b"`
	R   *float64 `yaml:"r"`
	Cov *float64 `yaml:"cov"`
}

func ParseFixture(r io.Reader) (Fixture, error) {
	var fixture Fixture
	if err := yaml.NewDecoder(r).Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("decoding engine fixture: %w", err)
	}
	return fixture, nil
}

// Load reads a fixture through the file resolver. Panel files that resolve
// are served under their physical location too, since that is what the
// orchestrator hands the engine.
func Load(ctx context.Context, resolver files.Resolver, path string, segmentSize int) (*Engine, error) {
	rc, err := files.OpenText(ctx, resolver, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	fixture, err := ParseFixture(rc)
	if err != nil {
		return nil, err
	}
	for i, pf := range fixture.Panels {
		for _, logical := range pf.Files {
			if physical, err := resolver.Resolve(ctx, logical); err == nil && physical != logical {
				fixture.Panels[i].Files = append(fixture.Panels[i].Files, physical)
			}
		}
	}
	return New(segmentSize, fixture)
}
