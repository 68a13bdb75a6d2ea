package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	c "ldserver/api/models/constants"
	"ldserver/api/models/indexes"
	"ldserver/api/repositories/memory"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/mitchellh/mapstructure"
)

const (
	genotypeIndex    = "ld-genotype-datasets"
	phenotypeIndex   = "ld-phenotype-datasets"
	summaryStatIndex = "ld-summary-stat-datasets"
	maskIndex        = "ld-masks"
	correlationIndex = "ld-correlations"

	// registry indices are small; one page holds them
	maxHits = 10000
)

// Source reads registry entities from Elasticsearch indices.
type Source struct {
	es    *es7.Client
	debug bool
}

func New(es *es7.Client, debug bool) *Source {
	return &Source{es: es, debug: debug}
}

func (s *Source) search(ctx context.Context, index string, query map[string]interface{}, out interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}
	if s.debug {
		fmt.Println(buf.String())
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(index),
		s.es.Search.WithBody(&buf),
		s.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return fmt.Errorf("searching %s: %w", index, err)
	}
	defer res.Body.Close()

	// a missing index is an empty registry table
	if res.StatusCode == http.StatusNotFound {
		return decode([]interface{}{}, out)
	}
	if res.IsError() {
		return fmt.Errorf("searching %s: %s", index, res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding %s response: %w", index, err)
	}

	sources := make([]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return decode(sources, out)
}

func decode(in interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

func matchAll(sortField string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"size": maxHits,
		"sort": map[string]string{
			sortField: "asc",
		},
	}
}

func (s *Source) GenotypeDatasets(ctx context.Context) ([]indexes.GenotypeDataset, error) {
	out := []indexes.GenotypeDataset{}
	err := s.search(ctx, genotypeIndex, matchAll("id"), &out)
	return out, err
}

func (s *Source) PhenotypeDatasets(ctx context.Context) ([]indexes.PhenotypeDataset, error) {
	out := []indexes.PhenotypeDataset{}
	err := s.search(ctx, phenotypeIndex, matchAll("id"), &out)
	return out, err
}

func (s *Source) SummaryStatDatasets(ctx context.Context) ([]indexes.SummaryStatDataset, error) {
	out := []indexes.SummaryStatDataset{}
	err := s.search(ctx, summaryStatIndex, matchAll("id"), &out)
	return out, err
}

func (s *Source) Masks(ctx context.Context) ([]indexes.Mask, error) {
	out := []indexes.Mask{}
	err := s.search(ctx, maskIndex, matchAll("id"), &out)
	return out, err
}

func (s *Source) Correlations(ctx context.Context) ([]indexes.Correlation, error) {
	out := []indexes.Correlation{}
	err := s.search(ctx, correlationIndex, matchAll("name"), &out)
	return out, err
}

func (s *Source) subsets(ctx context.Context, genotypeDatasetId int) (map[string][]string, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"id": genotypeDatasetId,
			},
		},
		"size": 1,
	}

	found := []indexes.GenotypeDataset{}
	if err := s.search(ctx, genotypeIndex, query, &found); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return map[string][]string{}, nil
	}

	subsets := found[0].Samples
	if subsets == nil {
		subsets = map[string][]string{}
	}
	if _, ok := subsets[c.AllSamples]; !ok {
		seen := map[string]bool{}
		all := []string{}
		for _, samples := range subsets {
			for _, sample := range samples {
				if !seen[sample] {
					seen[sample] = true
					all = append(all, sample)
				}
			}
		}
		sort.Strings(all)
		subsets[c.AllSamples] = all
	}
	return subsets, nil
}

func (s *Source) SampleSubsets(ctx context.Context, genotypeDatasetId int) ([]string, error) {
	subsets, err := s.subsets(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(subsets))
	for name := range subsets {
		out = append(out, name)
	}
	return out, nil
}

func (s *Source) Samples(ctx context.Context, genotypeDatasetId int, subset string) ([]string, error) {
	subsets, err := s.subsets(ctx, genotypeDatasetId)
	if err != nil {
		return nil, err
	}
	return subsets[subset], nil
}

// EnsureIndices creates any missing registry index with its mapping.
func (s *Source) EnsureIndices(ctx context.Context) error {
	names := make([]string, 0, len(indexes.MAPPINGS))
	for name := range indexes.MAPPINGS {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exists, err := s.es.Indices.Exists([]string{name}, s.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("checking index %s: %w", name, err)
		}
		exists.Body.Close()
		if exists.StatusCode == http.StatusOK {
			continue
		}

		body, err := json.Marshal(map[string]interface{}{
			"mappings": map[string]interface{}{
				"properties": indexes.MAPPINGS[name],
			},
		})
		if err != nil {
			return err
		}
		res, err := s.es.Indices.Create(name,
			s.es.Indices.Create.WithContext(ctx),
			s.es.Indices.Create.WithBody(bytes.NewReader(body)))
		if err != nil {
			return fmt.Errorf("creating index %s: %w", name, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("creating index %s: %s", name, res.Status())
		}
	}
	return nil
}

func (s *Source) index(ctx context.Context, index string, id string, doc interface{}) error {
	encoded, err := document(doc)
	if err != nil {
		return err
	}
	b, err := json.Marshal(encoded)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       strings.NewReader(string(b)),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("indexing %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indexing %s/%s: %s", index, id, res.Status())
	}
	return nil
}

// document flattens a struct into maps keyed by mapstructure tags, nested
// struct slices included, so search hits decode back into the same type.
func document(v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Struct:
		m := map[string]interface{}{}
		if err := decode(v, &m); err != nil {
			return nil, err
		}
		for k, inner := range m {
			converted, err := document(inner)
			if err != nil {
				return nil, err
			}
			m[k] = converted
		}
		return m, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Struct {
			return v, nil
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			converted, err := document(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}

// Import indexes every manifest entity, keyed by its id.
func (s *Source) Import(ctx context.Context, m memory.Manifest) error {
	for _, g := range m.GenotypeDatasets {
		if err := s.index(ctx, genotypeIndex, strconv.Itoa(g.Id), g); err != nil {
			return err
		}
	}
	for _, p := range m.PhenotypeDatasets {
		if err := s.index(ctx, phenotypeIndex, strconv.Itoa(p.Id), p); err != nil {
			return err
		}
	}
	for _, ss := range m.SummaryStatDatasets {
		if err := s.index(ctx, summaryStatIndex, strconv.Itoa(ss.Id), ss); err != nil {
			return err
		}
	}
	for _, mask := range m.Masks {
		if err := s.index(ctx, maskIndex, strconv.Itoa(mask.Id), mask); err != nil {
			return err
		}
	}
	for _, corr := range m.Correlations {
		if err := s.index(ctx, correlationIndex, corr.Name, corr); err != nil {
			return err
		}
	}
	return nil
}
