package artifacts

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Contribution records one value written into the settings by a contributor.
type Contribution struct {
	Contributor string
	Key         string
	Value       string
	// Replaced is the previous value when the contribution overrode an earlier one.
	Replaced  string
	Overrides bool
}

// SettingsBuilder accumulates settings from every contributor before a single immutable
// Settings value is produced. Later contributions override earlier ones.
type SettingsBuilder struct {
	values        map[string]string
	present       bool
	contributions []Contribution
	finalized     bool
}

// NewSettingsBuilder starts from base, which is copied and never mutated. A nil base with
// no later contributions yields absent settings.
func NewSettingsBuilder(base map[string]string) *SettingsBuilder {
	b := &SettingsBuilder{values: map[string]string{}}
	if base != nil {
		b.present = true
		keys := sortedKeys(base)
		for _, k := range keys {
			b.set("base", k, base[k])
		}
	}
	return b
}

// Set records a single value. Calls after Finalize are ignored.
func (b *SettingsBuilder) Set(contributor, key, value string) *SettingsBuilder {
	if b == nil || b.finalized {
		return b
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return b
	}
	b.present = true
	b.set(contributor, key, value)
	return b
}

// Merge records every entry of values, in key order.
func (b *SettingsBuilder) Merge(contributor string, values map[string]string) *SettingsBuilder {
	if b == nil || b.finalized || values == nil {
		return b
	}
	b.present = true
	for _, k := range sortedKeys(values) {
		if strings.TrimSpace(k) == "" {
			continue
		}
		b.set(contributor, k, values[k])
	}
	return b
}

func (b *SettingsBuilder) set(contributor, key, value string) {
	c := Contribution{Contributor: contributor, Key: key, Value: value}
	if prev, ok := b.values[key]; ok {
		c.Replaced = prev
		c.Overrides = true
	}
	b.values[key] = value
	b.contributions = append(b.contributions, c)
}

// Contributions returns the recorded contributions in call order.
func (b *SettingsBuilder) Contributions() []Contribution {
	if b == nil {
		return nil
	}
	return append([]Contribution(nil), b.contributions...)
}

// Finalize produces the immutable settings. The builder accepts no further contributions.
func (b *SettingsBuilder) Finalize() Settings {
	if b == nil {
		return Settings{}
	}
	b.finalized = true
	if !b.present {
		return Settings{}
	}
	values := make(map[string]string, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return Settings{values: values, present: true}
}

// Settings is the finalized key/value document rendered into settings.json.
type Settings struct {
	values  map[string]string
	present bool
}

// NewSettings returns finalized settings for values (nil means absent).
func NewSettings(values map[string]string) Settings {
	return NewSettingsBuilder(values).Finalize()
}

// Present reports whether a settings file should be written.
func (s Settings) Present() bool {
	return s.present
}

// Empty reports whether there are no values.
func (s Settings) Empty() bool {
	return len(s.values) == 0
}

func (s Settings) Len() int {
	return len(s.values)
}

func (s Settings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the setting names in sorted order.
func (s Settings) Keys() []string {
	return sortedKeys(s.values)
}

// Map returns a copy of the values.
func (s Settings) Map() map[string]string {
	if !s.present {
		return nil
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// JSON renders the settings as compact JSON with sorted keys. Equal settings always render
// to identical bytes.
func (s Settings) JSON() (string, error) {
	values := s.values
	if values == nil {
		values = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
