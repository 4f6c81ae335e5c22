package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCategory is assigned when no configured keyword matches.
const DefaultCategory = "ALTRI"

// CategoryKeywords is one ordered entry of a CategoryMap.
type CategoryKeywords struct {
	Name     string
	Keywords []string
}

// CategoryMap assigns channels to categories by keyword match. Categories
// are checked in configuration order and the first match wins, so the JSON
// form must keep its key order; a plain map would not. The same map drives
// both compilation (group-title) and the catalogs exposed over HTTP.
type CategoryMap struct {
	entries []CategoryKeywords
}

// NewCategoryMap builds a map from ordered entries.
func NewCategoryMap(entries ...CategoryKeywords) CategoryMap {
	return CategoryMap{entries: entries}
}

// Match returns the first category whose keyword list has a case-insensitive
// substring hit on name, or DefaultCategory.
func (m CategoryMap) Match(name string) string {
	lower := strings.ToLower(name)
	for _, e := range m.entries {
		for _, kw := range e.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return e.Name
			}
		}
	}
	return DefaultCategory
}

// Names returns the category names in configuration order.
func (m CategoryMap) Names() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Name
	}
	return out
}

// Len returns the number of configured categories.
func (m CategoryMap) Len() int { return len(m.entries) }

// UnmarshalJSON decodes a JSON object, preserving key order by walking
// tokens instead of decoding into a map.
func (m *CategoryMap) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category map: expected object, got %v", tok)
	}
	var entries []CategoryKeywords
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category map: bad key %v", keyTok)
		}
		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return fmt.Errorf("category map %q: %w", key, err)
		}
		entries = append(entries, CategoryKeywords{Name: key, Keywords: keywords})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.entries = entries
	return nil
}

// MarshalJSON writes the object with keys in configuration order.
func (m CategoryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		kws := e.Keywords
		if kws == nil {
			kws = []string{}
		}
		val, err := json.Marshal(kws)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
