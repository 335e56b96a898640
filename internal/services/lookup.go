package services

import (
	"github.com/google/uuid"
)

// Lookup is a tagged record reference: either the stable identity uuid or
// a movie name. It is resolved once at the API boundary; service methods
// never re-detect which form a caller passed.
type Lookup struct {
	id     uuid.UUID
	name   string
	byName bool
}

func LookupByID(id uuid.UUID) Lookup {
	return Lookup{id: id}
}

func LookupByName(name string) Lookup {
	return Lookup{name: name, byName: true}
}

// ParseLookupKey classifies a raw path key. Anything that parses as a uuid
// is an identity lookup; everything else is a name lookup.
func ParseLookupKey(key string) Lookup {
	if id, err := uuid.Parse(key); err == nil {
		return LookupByID(id)
	}
	return LookupByName(key)
}
