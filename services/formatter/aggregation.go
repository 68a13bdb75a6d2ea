package formatter

import (
	"fmt"

	c "ldserver/api/models/constants"
	variantFormat "ldserver/api/models/constants/variant-format"
	"ldserver/api/models/variant"

	"github.com/Jeffail/gabs"
)

// Aggregation unwraps the engine document and rewrites variant ids into
// the requested format. The result is what goes under the envelope's data.
func Aggregation(doc []byte, format c.VariantFormat) (interface{}, error) {
	parsed, err := gabs.ParseJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("decoding engine document: %w", err)
	}
	data := parsed.Path("data")
	if data.Data() == nil {
		return nil, fmt.Errorf("engine document has no data")
	}
	if format == variantFormat.EPACTS || format == variantFormat.Unknown {
		return data.Data(), nil
	}

	variants, _ := data.Path("variants").Children()
	for _, v := range variants {
		if id, ok := v.Path("variant").Data().(string); ok {
			if _, err := v.Set(variant.Translate(id, format), "variant"); err != nil {
				return nil, err
			}
		}
	}

	groups, _ := data.Path("groups").Children()
	for _, g := range groups {
		members, _ := g.Path("variants").Children()
		ids := make([]interface{}, 0, len(members))
		for _, m := range members {
			if id, ok := m.Data().(string); ok {
				ids = append(ids, variant.Translate(id, format))
			} else {
				ids = append(ids, m.Data())
			}
		}
		if _, err := g.Set(ids, "variants"); err != nil {
			return nil, err
		}
	}
	return data.Data(), nil
}
