package identity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Namespace under which all content identities are derived. Fixed so the
// record→identity mapping is stable across processes and restarts.
var identityNamespace = uuid.MustParse("7a7ff897-4ab2-4b54-8c46-31a0e6f3b283")

type Mode string

const (
	// ModeTitle derives identity from the title fields only: two records
	// with the same (name, orig_title) are the same logical movie.
	ModeTitle Mode = "title"
	// ModeStrict derives identity from every business field, so any
	// content change yields a new identity.
	ModeStrict Mode = "strict"
)

// fields that never participate in identity derivation
var excludedFields = map[string]struct{}{
	"id":         {},
	"uuid":       {},
	"bronze_id":  {},
	"is_deleted": {},
	"created_at": {},
	"updated_at": {},
}

var titleFields = []string{"name", "orig_title"}

type Assigner struct {
	mode Mode
}

func NewAssigner(mode Mode) *Assigner {
	if mode != ModeStrict {
		mode = ModeTitle
	}
	return &Assigner{mode: mode}
}

func (a *Assigner) Mode() Mode { return a.mode }

// Assign derives the stable identity of a raw record from its canonical
// form. It is a total function: missing fields contribute empty values.
func (a *Assigner) Assign(record map[string]any) uuid.UUID {
	var keys []string
	if a.mode == ModeTitle {
		keys = append(keys, titleFields...)
	} else {
		for k := range record {
			lk := strings.ToLower(strings.TrimSpace(k))
			if _, skip := excludedFields[lk]; skip {
				continue
			}
			keys = append(keys, lk)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+Normalize(record[k]))
	}
	canonical := strings.Join(parts, "\x1f")
	return uuid.NewSHA1(identityNamespace, []byte(canonical))
}

// KeyID derives a deterministic lineage id for a dimension row from its
// table name and natural-key parts.
func KeyID(table string, parts ...string) uuid.UUID {
	normalized := make([]string, 0, len(parts)+1)
	normalized = append(normalized, table)
	for _, p := range parts {
		normalized = append(normalized, Normalize(p))
	}
	return uuid.NewSHA1(identityNamespace, []byte(strings.Join(normalized, "\x1f")))
}

// LogID derives the append-only lineage-log primary key, so replaying the
// same transformation never duplicates an entry.
func LogID(lineageID, stage, transformation string) uuid.UUID {
	return uuid.NewSHA1(identityNamespace, []byte(lineageID+"\x1f"+stage+"\x1f"+transformation))
}

// Normalize renders a field value in canonical string form: trimmed,
// internal whitespace collapsed, numeric strings with trailing zeros
// stripped, nil rendered empty.
func Normalize(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return normalizeString(val)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return normalizeString(fmt.Sprintf("%v", val))
	}
}

func normalizeString(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	// "7.50" and "7.5" are the same score; leave non-numeric text alone.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}
