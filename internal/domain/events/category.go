package events

import (
	"encoding/json"
	"strings"
)

// Uncategorized is the label shown for events without a category.
const Uncategorized = "Uncategorized"

type CategoryKind string

const (
	// CategoryFlat is a plain label as stored on public read paths.
	CategoryFlat CategoryKind = "flat"
	// CategoryRelation is one or more joined category rows.
	CategoryRelation CategoryKind = "relation"
)

// Category reconciles the two shapes an event category arrives in behind a
// single representation. Label is the only way to derive display text.
type Category struct {
	Kind  CategoryKind
	Names []string
}

func FlatCategory(label string) Category {
	label = strings.TrimSpace(label)
	if label == "" {
		return Category{Kind: CategoryFlat}
	}
	return Category{Kind: CategoryFlat, Names: []string{label}}
}

func RelationCategory(names ...string) Category {
	return Category{Kind: CategoryRelation, Names: cleanNames(names)}
}

// CategoryFromAny accepts a plain string, a {name} object, or a list of
// {name} objects. Anything else yields an empty relation category.
func CategoryFromAny(value any) Category {
	switch v := value.(type) {
	case nil:
		return Category{Kind: CategoryRelation}
	case string:
		return FlatCategory(v)
	case *string:
		if v == nil {
			return Category{Kind: CategoryRelation}
		}
		return FlatCategory(*v)
	case Category:
		return v
	case map[string]any:
		return RelationCategory(nameOf(v))
	case []map[string]any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			names = append(names, nameOf(item))
		}
		return RelationCategory(names...)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				names = append(names, nameOf(obj))
			}
		}
		return RelationCategory(names...)
	default:
		return Category{Kind: CategoryRelation}
	}
}

// HasName reports whether at least one non-blank name is present.
func (c Category) HasName() bool {
	return len(cleanNames(c.Names)) > 0
}

// Label joins the non-blank names, or returns Uncategorized.
func (c Category) Label() string {
	names := cleanNames(c.Names)
	if len(names) == 0 {
		return Uncategorized
	}
	return strings.Join(names, ", ")
}

// Primary returns the first non-blank name, used when persisting.
func (c Category) Primary() string {
	names := cleanNames(c.Names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func nameOf(obj map[string]any) string {
	name, _ := obj["name"].(string)
	return name
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type categoryJSON struct {
	Kind  CategoryKind `json:"kind"`
	Names []string     `json:"names"`
}

func (c Category) MarshalJSON() ([]byte, error) {
	names := cleanNames(c.Names)
	kind := c.Kind
	if kind == "" {
		kind = CategoryRelation
	}
	return json.Marshal(categoryJSON{Kind: kind, Names: names})
}

// UnmarshalJSON accepts the tagged form as well as the raw shapes handled by
// CategoryFromAny.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if obj, ok := raw.(map[string]any); ok {
		if _, tagged := obj["kind"]; tagged {
			var tc categoryJSON
			if err := json.Unmarshal(data, &tc); err != nil {
				return err
			}
			*c = Category{Kind: tc.Kind, Names: cleanNames(tc.Names)}
			return nil
		}
	}
	*c = CategoryFromAny(raw)
	return nil
}
