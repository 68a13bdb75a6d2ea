package dtos

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	c "ldserver/api/models/constants"

	"github.com/vmihailenco/msgpack/v5"
)

// Envelope wraps every response body. Next is nil on unpaged responses and
// the empty string on the last page of a paged one.
type Envelope struct {
	Data  interface{} `json:"data" msgpack:"data"`
	Error *string     `json:"error" msgpack:"error"`
	Next  *string     `json:"next,omitempty" msgpack:"next,omitempty"`
}

func Ok(data interface{}) Envelope {
	return Envelope{Data: data}
}

func Paged(data interface{}, next string) Envelope {
	return Envelope{Data: data, Next: &next}
}

func Failed(message string) Envelope {
	return Envelope{Error: &message}
}

// Value is a statistic that encodes NaN as null.
type Value float64

func (v Value) IsNaN() bool { return math.IsNaN(float64(v)) }

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNaN() || math.IsInf(float64(v), 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(v), 'g', -1, 64)), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if v.IsNaN() {
		return enc.EncodeNil()
	}
	return enc.EncodeFloat64(float64(v))
}

func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	switch f := raw.(type) {
	case nil:
		*v = Value(math.NaN())
	case float64:
		*v = Value(f)
	case float32:
		*v = Value(f)
	}
	return nil
}

// -- LD payloads

// ClassicLD holds one row per correlated pair.
type ClassicLD struct {
	Chromosome1 []string `json:"chromosome1" msgpack:"chromosome1"`
	Variant1    []string `json:"variant1" msgpack:"variant1"`
	Position1   []int    `json:"position1" msgpack:"position1"`
	Chromosome2 []string `json:"chromosome2" msgpack:"chromosome2"`
	Variant2    []string `json:"variant2" msgpack:"variant2"`
	Position2   []int    `json:"position2" msgpack:"position2"`
	Correlation []Value  `json:"correlation" msgpack:"correlation"`
}

// CompactLD indexes each variant once; Correlations[i][k] is the value for
// partner Offsets[i]+k. Rows without partners carry math.MinInt32.
// Fillers[i] lists the k of row i that pad a gap between partners; it is
// omitted when every row is contiguous.
type CompactLD struct {
	Variants     []string  `json:"variants" msgpack:"variants"`
	Chromosomes  []string  `json:"chromosomes" msgpack:"chromosomes"`
	Positions    []int     `json:"positions" msgpack:"positions"`
	Offsets      []int     `json:"offsets" msgpack:"offsets"`
	Correlations [][]Value `json:"correlations" msgpack:"correlations"`
	Fillers      [][]int   `json:"fillers,omitempty" msgpack:"fillers,omitempty"`
}

type CompactVariantLD struct {
	IndexVariant    string   `json:"index_variant" msgpack:"index_variant"`
	IndexChromosome string   `json:"index_chromosome" msgpack:"index_chromosome"`
	IndexPosition   int      `json:"index_position" msgpack:"index_position"`
	Variants        []string `json:"variants" msgpack:"variants"`
	Chromosomes     []string `json:"chromosomes" msgpack:"chromosomes"`
	Positions       []int    `json:"positions" msgpack:"positions"`
	Correlations    []Value  `json:"correlations" msgpack:"correlations"`
}

// -- Reference panels

type Reference struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	GenomeBuild string   `json:"genome build"`
	Populations []string `json:"populations,omitempty"`
}

type Population struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type Status struct {
	Sha     string `json:"sha"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Cache   bool   `json:"cache"`
}

// -- Aggregation

type CovarianceRequest struct {
	Chrom                   string           `json:"chrom" mapstructure:"chrom"`
	Start                   *int             `json:"start" mapstructure:"start"`
	Stop                    *int             `json:"stop" mapstructure:"stop"`
	GenomeBuild             string           `json:"genomeBuild" mapstructure:"genomeBuild"`
	GenotypeDataset         int              `json:"genotypeDataset" mapstructure:"genotypeDataset"`
	PhenotypeDataset        int              `json:"phenotypeDataset" mapstructure:"phenotypeDataset"`
	SummaryStatisticDataset int              `json:"summaryStatisticDataset" mapstructure:"summaryStatisticDataset"`
	Phenotype               string           `json:"phenotype" mapstructure:"phenotype"`
	Samples                 string           `json:"samples" mapstructure:"samples"`
	Masks                   []int            `json:"masks" mapstructure:"masks"`
	MaskDefinitions         []MaskDefinition `json:"maskDefinitions" mapstructure:"-"`
	VariantFormat           string           `json:"variantFormat" mapstructure:"variantFormat"`
}

type MaskDefinition struct {
	Id             int              `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	GenomeBuild    string           `json:"genome_build"`
	GroupType      c.GroupType      `json:"group_type"`
	IdentifierType c.IdentifierType `json:"identifier_type"`
	Groups         GroupDefinitions `json:"groups"`
}

// GroupDefinition is either a []interface{} of variant ids or a
// map[string]interface{} region descriptor, as sent by the client.
type GroupDefinition struct {
	Name       string
	Definition interface{}
}

// GroupDefinitions keeps the client's key order.
type GroupDefinitions []GroupDefinition

func (g *GroupDefinitions) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("groups must be an object mapping group names to definitions")
	}

	out := GroupDefinitions{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var def interface{}
		if err := dec.Decode(&def); err != nil {
			return err
		}
		out = append(out, GroupDefinition{Name: keyTok.(string), Definition: def})
	}
	*g = out
	return nil
}

func (g GroupDefinitions) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, def := range g {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(def.Name)
		value, err := json.Marshal(def.Definition)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	return append(buf, '}'), nil
}

// -- Metadata

type MaskMetadata struct {
	Id             int              `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	GenomeBuild    string           `json:"genomeBuild"`
	GroupType      c.GroupType      `json:"groupType"`
	IdentifierType c.IdentifierType `json:"identifierType"`
}

type PhenotypeMetadata struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Type        c.ColumnType `json:"type"`
}

type PhenotypeDatasetMetadata struct {
	PhenotypeDataset int                 `json:"phenotypeDataset"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Phenotypes       []PhenotypeMetadata `json:"phenotypes"`
}

type GenotypeMetadata struct {
	GenotypeDataset   int                        `json:"genotypeDataset"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description"`
	GenomeBuild       string                     `json:"genomeBuild"`
	Masks             []MaskMetadata             `json:"masks"`
	PhenotypeDatasets []PhenotypeDatasetMetadata `json:"phenotypeDatasets"`
}

type SummaryStatMetadata struct {
	SummaryStatisticDataset int            `json:"summaryStatisticDataset"`
	Name                    string         `json:"name"`
	Description             string         `json:"description"`
	GenomeBuild             string         `json:"genomeBuild"`
	Masks                   []MaskMetadata `json:"masks"`
}
