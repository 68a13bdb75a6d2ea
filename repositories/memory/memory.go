package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	c "ldserver/api/models/constants"
	"ldserver/api/models/indexes"
	"ldserver/api/services/files"
	"ldserver/api/services/phenotypes"

	"github.com/ahmetb/go-linq"
	"gopkg.in/yaml.v2"
)

// Manifest is the on-disk description of every registry entity.
type Manifest struct {
	GenotypeDatasets    []indexes.GenotypeDataset    `yaml:"genotype_datasets"`
	PhenotypeDatasets   []indexes.PhenotypeDataset   `yaml:"phenotype_datasets"`
	SummaryStatDatasets []indexes.SummaryStatDataset `yaml:"summary_stat_datasets"`
	Masks               []indexes.Mask               `yaml:"masks"`
	Correlations        []indexes.Correlation        `yaml:"correlations"`
}

// Source serves a manifest held in memory.
type Source struct {
	mu       sync.RWMutex
	manifest Manifest
}

func ParseManifest(r io.Reader) (*Manifest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads the manifest at path through the resolver. Phenotype
// datasets declared without columns are typed from their files.
func LoadManifest(ctx context.Context, resolver files.Resolver, path string) (*Manifest, error) {
	rc, err := files.OpenText(ctx, resolver, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := ParseManifest(rc)
	if err != nil {
		return nil, err
	}

	for i, p := range m.PhenotypeDatasets {
		if len(p.Columns) > 0 || p.Filepath == "" {
			continue
		}
		table, err := phenotypes.Load(ctx, resolver, p)
		if err != nil {
			return nil, err
		}
		m.PhenotypeDatasets[i].Columns = table.Columns
		m.PhenotypeDatasets[i].Nrows = table.Nrows
		m.PhenotypeDatasets[i].Ncols = table.Ncols
	}
	return m, nil
}

func Load(ctx context.Context, resolver files.Resolver, path string) (*Source, error) {
	m, err := LoadManifest(ctx, resolver, path)
	if err != nil {
		return nil, err
	}
	return New(*m)
}

// New validates the manifest and completes every dataset's ALL subset.
func New(m Manifest) (*Source, error) {
	seen := map[string]bool{}
	for i, g := range m.GenotypeDatasets {
		key := g.GenomeBuild + "/" + g.Name
		if seen[key] {
			return nil, fmt.Errorf("duplicate genotype dataset %q for genome build %s", g.Name, g.GenomeBuild)
		}
		seen[key] = true

		m.GenotypeDatasets[i].Samples = withAll(g.Samples)
	}
	return &Source{manifest: m}, nil
}

func withAll(subsets map[string][]string) map[string][]string {
	out := make(map[string][]string, len(subsets)+1)
	all := []string{}
	for name, samples := range subsets {
		out[name] = samples
		all = append(all, samples...)
	}

	union := []string{}
	linq.From(all).Distinct().ToSlice(&union)
	sort.Strings(union)
	out[c.AllSamples] = union
	return out
}

func (s *Source) genotype(id int) (indexes.GenotypeDataset, bool) {
	found := linq.From(s.manifest.GenotypeDatasets).FirstWithT(func(g indexes.GenotypeDataset) bool { return g.Id == id })
	if found == nil {
		return indexes.GenotypeDataset{}, false
	}
	return found.(indexes.GenotypeDataset), true
}

func (s *Source) GenotypeDatasets(context.Context) ([]indexes.GenotypeDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]indexes.GenotypeDataset(nil), s.manifest.GenotypeDatasets...), nil
}

func (s *Source) PhenotypeDatasets(context.Context) ([]indexes.PhenotypeDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.PhenotypeDatasets, nil
}

func (s *Source) SummaryStatDatasets(context.Context) ([]indexes.SummaryStatDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.SummaryStatDatasets, nil
}

func (s *Source) Masks(context.Context) ([]indexes.Mask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.Masks, nil
}

func (s *Source) Correlations(context.Context) ([]indexes.Correlation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest.Correlations, nil
}

func (s *Source) SampleSubsets(_ context.Context, genotypeDatasetId int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.genotype(genotypeDatasetId)
	if !ok {
		return []string{}, nil
	}
	out := []string{}
	for name := range g.Samples {
		out = append(out, name)
	}
	return out, nil
}

func (s *Source) Samples(_ context.Context, genotypeDatasetId int, subset string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.genotype(genotypeDatasetId)
	if !ok {
		return []string{}, nil
	}
	return g.Samples[subset], nil
}

// AddSubset appends a named sample subset to a genotype dataset. ALL is
// extended with any samples it did not already hold.
func (s *Source) AddSubset(genotypeDatasetId int, name string, samples []string) error {
	if name == c.AllSamples {
		return fmt.Errorf("subset name %s is reserved", c.AllSamples)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.manifest.GenotypeDatasets {
		if g.Id != genotypeDatasetId {
			continue
		}
		if _, exists := g.Samples[name]; exists {
			return fmt.Errorf("subset %s already exists in genotype dataset %d", name, genotypeDatasetId)
		}

		subsets := make(map[string][]string, len(g.Samples)+1)
		for k, v := range g.Samples {
			subsets[k] = v
		}
		subsets[name] = samples

		union := []string{}
		linq.From(g.Samples[c.AllSamples]).Union(linq.From(samples)).ToSlice(&union)
		sort.Strings(union)
		subsets[c.AllSamples] = union

		s.manifest.GenotypeDatasets[i].Samples = subsets
		return nil
	}
	return fmt.Errorf("genotype dataset %d does not exist", genotypeDatasetId)
}
