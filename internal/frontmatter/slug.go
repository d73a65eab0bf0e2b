package frontmatter

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// slugFallbackLocales are consulted, in order, when a localized slug has no value for the
// requested locale.
var slugFallbackLocales = []string{"fr", "en"}

// LocalizedSlug is either a single slug shared by every locale or a mapping
// from locale to slug.
type LocalizedSlug struct {
	Value     string
	Localized map[string]string
}

func PlainSlug(value string) LocalizedSlug {
	return LocalizedSlug{Value: value}
}

func LocalizedSlugOf(localized map[string]string) LocalizedSlug {
	return LocalizedSlug{Localized: localized}
}

func (s *LocalizedSlug) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		s.Value, s.Localized = node.Value, nil
		return nil
	case yaml.MappingNode:
		localized := make(map[string]string, len(node.Content)/2)
		if err := node.Decode(&localized); err != nil {
			return fmt.Errorf("fail to decode localized slug: %w", err)
		}
		s.Value, s.Localized = "", localized
		return nil
	}
	return fmt.Errorf("slug at line %d must be a string or a locale mapping", node.Line)
}

func (s LocalizedSlug) MarshalJSON() ([]byte, error) {
	if s.IsLocalized() {
		return json.Marshal(s.Localized)
	}
	return json.Marshal(s.Value)
}

func (s *LocalizedSlug) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		s.Value, s.Localized = "", make(map[string]string)
		return json.Unmarshal(data, &s.Localized)
	}
	s.Localized = nil
	return json.Unmarshal(data, &s.Value)
}

func (s LocalizedSlug) IsZero() bool {
	return s.Value == "" && s.Localized == nil
}

func (s LocalizedSlug) IsLocalized() bool {
	return s.Localized != nil
}

// GroupKey identifies every translation of the same post: the mapping values
// sorted and joined with "|", or the plain slug itself.
func (s LocalizedSlug) GroupKey() string {
	if !s.IsLocalized() {
		return s.Value
	}
	values := make([]string, 0, len(s.Localized))
	for _, v := range s.Localized {
		values = append(values, v)
	}
	slices.Sort(values)
	return strings.Join(values, "|")
}

// Resolve picks the slug for locale, falling back to fr, en, then the first
// locale in key order. An empty mapping resolves to "".
func (s LocalizedSlug) Resolve(locale string) string {
	if !s.IsLocalized() {
		return s.Value
	}
	if v, ok := s.Localized[locale]; ok {
		return v
	}
	for _, fallback := range slugFallbackLocales {
		if v, ok := s.Localized[fallback]; ok {
			return v
		}
	}
	keys := make([]string, 0, len(s.Localized))
	for k := range s.Localized {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	slices.Sort(keys)
	return s.Localized[keys[0]]
}
