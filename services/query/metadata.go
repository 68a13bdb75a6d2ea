package query

import (
	"context"

	"ldserver/api/models/dtos"
	"ldserver/api/models/indexes"

	"github.com/ahmetb/go-linq"
)

func maskMetadata(ms []indexes.Mask) []dtos.MaskMetadata {
	out := []dtos.MaskMetadata{}
	linq.From(ms).SelectT(func(m indexes.Mask) dtos.MaskMetadata {
		return dtos.MaskMetadata{
			Id:             m.Id,
			Name:           m.Name,
			Description:    m.Description,
			GenomeBuild:    m.GenomeBuild,
			GroupType:      m.GroupType,
			IdentifierType: m.IdentifierType,
		}
	}).ToSlice(&out)
	return out
}

// Metadata lists every dataset usable for aggregation, genotype datasets
// first, with their masks and phenotypes.
func (o *Orchestrator) Metadata(ctx context.Context) ([]interface{}, error) {
	out := []interface{}{}

	builds, err := o.Registry.GenomeBuilds(ctx)
	if err != nil {
		return nil, err
	}
	for _, build := range builds {
		datasets, err := o.Registry.GenotypeDatasets(ctx, build)
		if err != nil {
			return nil, err
		}
		for _, g := range datasets {
			ms, err := o.Registry.MasksForGenotype(ctx, g.Id)
			if err != nil {
				return nil, err
			}
			phenos, err := o.Registry.PhenotypeDatasetsFor(ctx, g.Id)
			if err != nil {
				return nil, err
			}

			entry := dtos.GenotypeMetadata{
				GenotypeDataset:   g.Id,
				Name:              g.Name,
				Description:       g.Description,
				GenomeBuild:       g.GenomeBuild,
				Masks:             maskMetadata(ms),
				PhenotypeDatasets: []dtos.PhenotypeDatasetMetadata{},
			}
			for _, p := range phenos {
				columns := []dtos.PhenotypeMetadata{}
				linq.From(p.Columns).
					WhereT(func(col indexes.PhenotypeColumn) bool { return col.ForAnalysis }).
					SelectT(func(col indexes.PhenotypeColumn) dtos.PhenotypeMetadata {
						return dtos.PhenotypeMetadata{Name: col.Name, Description: col.Description, Type: col.ColumnType}
					}).
					ToSlice(&columns)
				entry.PhenotypeDatasets = append(entry.PhenotypeDatasets, dtos.PhenotypeDatasetMetadata{
					PhenotypeDataset: p.Id,
					Name:             p.Name,
					Description:      p.Description,
					Phenotypes:       columns,
				})
			}
			out = append(out, entry)
		}
	}

	sumstats, err := o.Registry.SummaryStatDatasets(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sumstats {
		ms, err := o.Registry.MasksForSummaryStat(ctx, s.Id)
		if err != nil {
			return nil, err
		}
		out = append(out, dtos.SummaryStatMetadata{
			SummaryStatisticDataset: s.Id,
			Name:                    s.Name,
			Description:             s.Description,
			GenomeBuild:             s.GenomeBuild,
			Masks:                   maskMetadata(ms),
		})
	}
	return out, nil
}
