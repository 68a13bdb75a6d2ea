package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ldserver/api/models/indexes"
	"ldserver/api/services/files"

	"github.com/ahmetb/go-linq"
)

// ErrNotFound is distinct from an empty result: the referenced entity does
// not exist at all.
var ErrNotFound = errors.New("not found")

// Source is a storage backend holding registry entities.
type Source interface {
	GenotypeDatasets(ctx context.Context) ([]indexes.GenotypeDataset, error)
	PhenotypeDatasets(ctx context.Context) ([]indexes.PhenotypeDataset, error)
	SummaryStatDatasets(ctx context.Context) ([]indexes.SummaryStatDataset, error)
	Masks(ctx context.Context) ([]indexes.Mask, error)
	Correlations(ctx context.Context) ([]indexes.Correlation, error)
	SampleSubsets(ctx context.Context, genotypeDatasetId int) ([]string, error)
	Samples(ctx context.Context, genotypeDatasetId int, subset string) ([]string, error)
}

// Registry answers read-only lookups over a Source. It is safe for
// concurrent use as long as the Source is.
type Registry struct {
	source   Source
	resolver files.Resolver
}

func New(source Source, resolver files.Resolver) *Registry {
	return &Registry{source: source, resolver: resolver}
}

func (r *Registry) GenomeBuilds(ctx context.Context) ([]string, error) {
	datasets, err := r.source.GenotypeDatasets(ctx)
	if err != nil {
		return nil, err
	}

	builds := []string{}
	linq.From(datasets).
		SelectT(func(g indexes.GenotypeDataset) string { return g.GenomeBuild }).
		Distinct().
		ToSlice(&builds)
	sort.Strings(builds)
	return builds, nil
}

func (r *Registry) HasGenomeBuild(ctx context.Context, build string) (bool, error) {
	datasets, err := r.source.GenotypeDatasets(ctx)
	if err != nil {
		return false, err
	}
	return linq.From(datasets).AnyWithT(func(g indexes.GenotypeDataset) bool {
		return g.GenomeBuild == build
	}), nil
}

// GenotypeDatasets lists the reference panels of one genome build.
func (r *Registry) GenotypeDatasets(ctx context.Context, build string) ([]indexes.GenotypeDataset, error) {
	datasets, err := r.source.GenotypeDatasets(ctx)
	if err != nil {
		return nil, err
	}

	out := []indexes.GenotypeDataset{}
	linq.From(datasets).
		WhereT(func(g indexes.GenotypeDataset) bool { return g.GenomeBuild == build }).
		OrderByT(func(g indexes.GenotypeDataset) int { return g.Id }).
		ToSlice(&out)
	return out, nil
}

func (r *Registry) GenotypeDatasetId(ctx context.Context, build string, name string) (int, error) {
	datasets, err := r.GenotypeDatasets(ctx, build)
	if err != nil {
		return 0, err
	}
	found := linq.From(datasets).FirstWithT(func(g indexes.GenotypeDataset) bool { return g.Name == name })
	if found == nil {
		return 0, fmt.Errorf("genotype dataset %s/%s: %w", build, name, ErrNotFound)
	}
	return found.(indexes.GenotypeDataset).Id, nil
}

func (r *Registry) GenotypeDataset(ctx context.Context, id int) (*indexes.GenotypeDataset, error) {
	datasets, err := r.source.GenotypeDatasets(ctx)
	if err != nil {
		return nil, err
	}
	found := linq.From(datasets).FirstWithT(func(g indexes.GenotypeDataset) bool { return g.Id == id })
	if found == nil {
		return nil, fmt.Errorf("genotype dataset %d: %w", id, ErrNotFound)
	}
	g := found.(indexes.GenotypeDataset)
	return &g, nil
}

func (r *Registry) SampleSubsets(ctx context.Context, genotypeDatasetId int) ([]string, error) {
	subsets, err := r.source.SampleSubsets(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	sort.Strings(subsets)
	return subsets, nil
}

func (r *Registry) HasSamples(ctx context.Context, genotypeDatasetId int, subset string) (bool, error) {
	samples, err := r.source.Samples(ctx, genotypeDatasetId, subset)
	if err != nil {
		return false, err
	}
	return len(samples) > 0, nil
}

func (r *Registry) Samples(ctx context.Context, genotypeDatasetId int, subset string) ([]string, error) {
	return r.source.Samples(ctx, genotypeDatasetId, subset)
}

func (r *Registry) SamplesCount(ctx context.Context, genotypeDatasetId int, subset string) (int, error) {
	samples, err := r.source.Samples(ctx, genotypeDatasetId, subset)
	return len(samples), err
}

// Files returns the logical genotype file paths of a dataset.
func (r *Registry) Files(ctx context.Context, genotypeDatasetId int) ([]string, error) {
	g, err := r.GenotypeDataset(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	return g.Files, nil
}

// Resolve maps logical paths to physical locations through the file resolver.
func (r *Registry) Resolve(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		loc, err := r.resolver.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

func (r *Registry) Resolver() files.Resolver {
	return r.resolver
}

func (r *Registry) PhenotypeDataset(ctx context.Context, id int) (*indexes.PhenotypeDataset, error) {
	datasets, err := r.source.PhenotypeDatasets(ctx)
	if err != nil {
		return nil, err
	}
	found := linq.From(datasets).FirstWithT(func(p indexes.PhenotypeDataset) bool { return p.Id == id })
	if found == nil {
		return nil, fmt.Errorf("phenotype dataset %d: %w", id, ErrNotFound)
	}
	p := found.(indexes.PhenotypeDataset)
	return &p, nil
}

func (r *Registry) HasPhenotype(ctx context.Context, phenotypeDatasetId int, column string) (bool, error) {
	p, err := r.PhenotypeDataset(ctx, phenotypeDatasetId)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return linq.From(p.Columns).AnyWithT(func(col indexes.PhenotypeColumn) bool { return col.Name == column }), nil
}

func (r *Registry) PhenotypeDatasetsFor(ctx context.Context, genotypeDatasetId int) ([]indexes.PhenotypeDataset, error) {
	g, err := r.GenotypeDataset(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	datasets, err := r.source.PhenotypeDatasets(ctx)
	if err != nil {
		return nil, err
	}

	out := []indexes.PhenotypeDataset{}
	linq.From(datasets).
		WhereT(func(p indexes.PhenotypeDataset) bool { return g.LinkedToPhenotype(p.Id) }).
		OrderByT(func(p indexes.PhenotypeDataset) int { return p.Id }).
		ToSlice(&out)
	return out, nil
}

func (r *Registry) SummaryStatDatasets(ctx context.Context) ([]indexes.SummaryStatDataset, error) {
	datasets, err := r.source.SummaryStatDatasets(ctx)
	if err != nil {
		return nil, err
	}
	out := []indexes.SummaryStatDataset{}
	linq.From(datasets).OrderByT(func(s indexes.SummaryStatDataset) int { return s.Id }).ToSlice(&out)
	return out, nil
}

func (r *Registry) SummaryStatDataset(ctx context.Context, id int) (*indexes.SummaryStatDataset, error) {
	datasets, err := r.source.SummaryStatDatasets(ctx)
	if err != nil {
		return nil, err
	}
	found := linq.From(datasets).FirstWithT(func(s indexes.SummaryStatDataset) bool { return s.Id == id })
	if found == nil {
		return nil, fmt.Errorf("summary statistic dataset %d: %w", id, ErrNotFound)
	}
	s := found.(indexes.SummaryStatDataset)
	return &s, nil
}

func (r *Registry) Mask(ctx context.Context, id int) (*indexes.Mask, error) {
	masks, err := r.source.Masks(ctx)
	if err != nil {
		return nil, err
	}
	found := linq.From(masks).FirstWithT(func(m indexes.Mask) bool { return m.Id == id })
	if found == nil {
		return nil, fmt.Errorf("mask %d: %w", id, ErrNotFound)
	}
	m := found.(indexes.Mask)
	return &m, nil
}

// MaskByName finds a mask by name among those linked to a genotype dataset.
func (r *Registry) MaskByName(ctx context.Context, name string, genotypeDatasetId int) (*indexes.Mask, error) {
	masks, err := r.MasksForGenotype(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	found := linq.From(masks).FirstWithT(func(m indexes.Mask) bool { return m.Name == name })
	if found == nil {
		return nil, fmt.Errorf("mask %q for genotype dataset %d: %w", name, genotypeDatasetId, ErrNotFound)
	}
	m := found.(indexes.Mask)
	return &m, nil
}

func (r *Registry) masksWhere(ctx context.Context, pred func(indexes.Mask) bool) ([]indexes.Mask, error) {
	masks, err := r.source.Masks(ctx)
	if err != nil {
		return nil, err
	}
	out := []indexes.Mask{}
	linq.From(masks).
		WhereT(pred).
		OrderByT(func(m indexes.Mask) int { return m.Id }).
		ToSlice(&out)
	return out, nil
}

func (r *Registry) MasksForGenotype(ctx context.Context, genotypeDatasetId int) ([]indexes.Mask, error) {
	return r.masksWhere(ctx, func(m indexes.Mask) bool { return m.LinkedToGenotype(genotypeDatasetId) })
}

func (r *Registry) MasksForSummaryStat(ctx context.Context, summaryStatDatasetId int) ([]indexes.Mask, error) {
	return r.masksWhere(ctx, func(m indexes.Mask) bool { return m.LinkedToSummaryStat(summaryStatDatasetId) })
}

var defaultCorrelations = []indexes.Correlation{
	{Name: "r", Label: "r", Type: "LD"},
	{Name: "rsquare", Label: "r^2", Type: "LD"},
	{Name: "cov", Label: "covariance", Type: "Covariance"},
}

func (r *Registry) Correlations(ctx context.Context) ([]indexes.Correlation, error) {
	correlations, err := r.source.Correlations(ctx)
	if err != nil {
		return nil, err
	}
	if len(correlations) == 0 {
		return defaultCorrelations, nil
	}
	return correlations, nil
}
