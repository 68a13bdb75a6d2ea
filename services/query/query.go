package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ldserver/api/models"
	c "ldserver/api/models/constants"
	"ldserver/api/models/faults"
	"ldserver/api/models/indexes"
	"ldserver/api/services/engine"
	"ldserver/api/services/files"
	"ldserver/api/services/masks"
	"ldserver/api/services/metrics"
	"ldserver/api/services/pagination"
	"ldserver/api/services/registry"

	"golang.org/x/sync/errgroup"
)

// CacheTargeter hands out the segment cache endpoint while it is reachable.
type CacheTargeter interface {
	Target(key string) *engine.CacheTarget
}

// Orchestrator turns validated requests into engine calls. It holds no
// per-request state.
type Orchestrator struct {
	Registry *registry.Registry
	Engine   engine.Engine
	Masks    *masks.Resolver
	Cache    CacheTargeter

	Timeout       time.Duration
	SegmentSize   int
	MaxRegionSize int
}

func New(reg *registry.Registry, eng engine.Engine, cache CacheTargeter, cfg *models.Config) *Orchestrator {
	return &Orchestrator{
		Registry:      reg,
		Engine:        eng,
		Masks:         masks.New(reg, cfg.Api.MaxCovRegionSize),
		Cache:         cache,
		Timeout:       cfg.Engine.Timeout,
		SegmentSize:   cfg.Engine.SegmentSize,
		MaxRegionSize: cfg.Api.MaxRegionSize,
	}
}

// LDQuery is a validated region or variant LD request. Variant is empty for
// region queries.
type LDQuery struct {
	GenomeBuild string
	Reference   string
	Population  string

	Chrom       string
	Start       int
	Stop        int
	Variant     string
	Correlation c.CorrelationKind

	Limit int
	Last  pagination.Cursor
}

type LDResult struct {
	Pairs  []engine.Pair
	Index  *engine.Anchor
	Cursor pagination.Cursor
}

// -- reference panels

func (o *Orchestrator) genomeBuild(ctx context.Context, build string) error {
	ok, err := o.Registry.HasGenomeBuild(ctx, build)
	if err != nil {
		return err
	}
	if !ok {
		return faults.NotFoundf("Genome build '%s' was not found.", build)
	}
	return nil
}

// References lists the reference panels of a genome build.
func (o *Orchestrator) References(ctx context.Context, build string) ([]indexes.GenotypeDataset, error) {
	if err := o.genomeBuild(ctx, build); err != nil {
		return nil, err
	}
	return o.Registry.GenotypeDatasets(ctx, build)
}

// Reference resolves a reference panel by genome build and name.
func (o *Orchestrator) Reference(ctx context.Context, build string, name string) (*indexes.GenotypeDataset, error) {
	if err := o.genomeBuild(ctx, build); err != nil {
		return nil, err
	}
	id, err := o.Registry.GenotypeDatasetId(ctx, build, name)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, faults.NotFoundf("Reference panel '%s' was not found in %s genome build.", name, build)
	}
	if err != nil {
		return nil, err
	}
	return o.Registry.GenotypeDataset(ctx, id)
}

// Population resolves a reference panel and checks it holds the subset.
func (o *Orchestrator) Population(ctx context.Context, build string, name string, population string) (*indexes.GenotypeDataset, error) {
	g, err := o.Reference(ctx, build, name)
	if err != nil {
		return nil, err
	}
	ok, err := o.Registry.HasSamples(ctx, g.Id, population)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.NotFoundf("Population '%s' was not found in %s reference panel.", population, name)
	}
	return g, nil
}

func (o *Orchestrator) Chromosomes(ctx context.Context, build string, name string) ([]string, error) {
	g, err := o.Reference(ctx, build, name)
	if err != nil {
		return nil, err
	}
	paths, err := o.Registry.Resolve(ctx, g.Files)
	if err != nil {
		return nil, fmt.Errorf("resolving files of %s: %w", g.Name, err)
	}

	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	chroms, err := o.Engine.Chromosomes(ctx, paths)
	metrics.ObserveEngine("chromosomes", started, err)
	if err != nil {
		return nil, o.engineError(err)
	}
	return chroms, nil
}

// -- LD

// panel loads the sample list and the physical files of a dataset side by
// side. Failures are reported in a fixed order whichever finishes first.
func (o *Orchestrator) panel(ctx context.Context, g *indexes.GenotypeDataset, subset string) (engine.Panel, error) {
	p := engine.Panel{DatasetId: g.Id, Subset: subset}
	var samplesErr, filesErr error

	var group errgroup.Group
	group.Go(func() error {
		if subset == c.AllSamples {
			return nil
		}
		p.Samples, samplesErr = o.Registry.Samples(ctx, g.Id, subset)
		return nil
	})
	group.Go(func() error {
		p.Files, filesErr = o.Registry.Resolve(ctx, g.Files)
		return nil
	})
	_ = group.Wait()

	if samplesErr != nil {
		return engine.Panel{}, fmt.Errorf("loading samples of %s/%s: %w", g.Name, subset, samplesErr)
	}
	if filesErr != nil {
		return engine.Panel{}, fmt.Errorf("resolving files of %s: %w", g.Name, filesErr)
	}
	return p, nil
}

func (o *Orchestrator) regionRequest(ctx context.Context, q LDQuery) (engine.RegionRequest, error) {
	g, err := o.Population(ctx, q.GenomeBuild, q.Reference, q.Population)
	if err != nil {
		return engine.RegionRequest{}, err
	}
	p, err := o.panel(ctx, g, q.Population)
	if err != nil {
		return engine.RegionRequest{}, err
	}
	return engine.RegionRequest{
		Panel:       p,
		Chrom:       q.Chrom,
		Start:       q.Start,
		Stop:        q.Stop,
		Correlation: q.Correlation,
		Cache:       o.cacheTarget(fmt.Sprintf("genotype:%d", g.Id)),
		Segments:    engine.NewSegments(fmt.Sprintf("genotype:%d", g.Id), o.SegmentSize),
	}, nil
}

func (o *Orchestrator) RegionLD(ctx context.Context, q LDQuery) (*LDResult, error) {
	req, err := o.regionRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	sink := engine.NewResultSink(q.Limit, q.Last)
	return o.collect(ctx, "region", sink, func(ctx context.Context) error {
		return o.Engine.ComputeRegionLD(ctx, req, sink)
	})
}

func (o *Orchestrator) VariantLD(ctx context.Context, q LDQuery) (*LDResult, error) {
	req, err := o.regionRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	sink := engine.NewResultSink(q.Limit, q.Last)
	return o.collect(ctx, "variant", sink, func(ctx context.Context) error {
		return o.Engine.ComputeVariantLD(ctx, engine.VariantRequest{RegionRequest: req, Variant: q.Variant}, sink)
	})
}

// collect runs one engine call into sink. A recoverable engine condition
// ends the query with an empty terminal page.
func (o *Orchestrator) collect(ctx context.Context, op string, sink *engine.ResultSink, run func(context.Context) error) (*LDResult, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	err := run(ctx)
	metrics.ObserveEngine(op, started, err)

	if engine.IsRecoverable(err) {
		sink.Pairs = []engine.Pair{}
		sink.Index = nil
		sink.Finish()
		err = nil
	}
	if err != nil {
		return nil, o.engineError(err)
	}

	metrics.ObservePage(op, !sink.Cursor.HasNext())
	return &LDResult{Pairs: sink.Pairs, Index: sink.Index, Cursor: sink.Cursor}, nil
}

// -- engine plumbing

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func (o *Orchestrator) cacheTarget(key string) *engine.CacheTarget {
	if o.Cache == nil {
		return nil
	}
	return o.Cache.Target(key)
}

// engineError keeps engine internals such as file paths out of the client
// message.
func (o *Orchestrator) engineError(err error) error {
	var f *faults.Fault
	switch {
	case errors.As(err, &f):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return faults.Wrap(faults.EngineFault, err, "Computation did not finish within %s.", o.Timeout)
	case errors.Is(err, files.ErrNotFound):
		return faults.Wrap(faults.Internal, err, "A dataset file is missing on the server.")
	default:
		return faults.Wrap(faults.EngineFault, err, "An error occurred while computing results.")
	}
}
