package instrument

// registry is the package-level catalog, populated by init() in seed.go.
var registry map[ScaleID]*Schema

// Lookup returns the schema for id. An unknown id yields *UnknownScaleError;
// callers on the normal path should never see it.
func Lookup(id ScaleID) (*Schema, error) {
	s, ok := registry[id]
	if !ok {
		return nil, &UnknownScaleError{ID: id}
	}
	return s, nil
}

// MustLookup is Lookup for ids that come from the closed set. An unknown id
// is a programming defect and panics.
func MustLookup(id ScaleID) *Schema {
	s, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return s
}

// All returns every registered schema in display order.
func All() []*Schema {
	out := make([]*Schema, 0, len(registry))
	for _, id := range AllScaleIDs() {
		if s, ok := registry[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// buildRegistry indexes the schemas and assigns band ranks.
func buildRegistry(schemas []*Schema) map[ScaleID]*Schema {
	reg := make(map[ScaleID]*Schema, len(schemas))
	for _, s := range schemas {
		for i := range s.Bands {
			s.Bands[i].Rank = i
		}
		reg[s.ID] = s
	}
	return reg
}
