package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
)

type catalogFile struct {
	Sports []catalogEntry `yaml:"sports"`
}

type catalogEntry struct {
	Slug       string `yaml:"slug"`
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	LiveFormat string `yaml:"live_format"`
	Live       *bool  `yaml:"live"`
}

// DefaultSportsCatalog is used when SPORTS_CATALOG_FILE is unset.
func DefaultSportsCatalog() []sport.Sport {
	return []sport.Sport{
		{Slug: "soccer", Name: "Soccer", Kind: sport.KindInvasion, LiveFormat: sport.FormatXML, LiveEnabled: true},
		{Slug: "basketball", Name: "Basketball", Kind: sport.KindInvasion, LiveFormat: sport.FormatJSON, LiveEnabled: true},
		{Slug: "hockey", Name: "Hockey", Kind: sport.KindInvasion, LiveFormat: sport.FormatXML, LiveEnabled: true},
		{Slug: "cricket", Name: "Cricket", Kind: sport.KindCricket, LiveFormat: sport.FormatXML, LiveEnabled: true},
	}
}

func LoadSportsCatalog(path string) ([]sport.Sport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sports catalog: %w", err)
	}
	return ParseSportsCatalog(raw)
}

// ParseSportsCatalog decodes the YAML catalog. Slugs are lowercased and must
// be unique; live defaults to true.
func ParseSportsCatalog(raw []byte) ([]sport.Sport, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode sports catalog: %w", err)
	}
	if len(file.Sports) == 0 {
		return nil, fmt.Errorf("sports catalog has no entries")
	}

	seen := make(map[string]struct{}, len(file.Sports))
	out := make([]sport.Sport, 0, len(file.Sports))
	for i, entry := range file.Sports {
		slug := strings.ToLower(strings.TrimSpace(entry.Slug))
		if slug == "" {
			return nil, fmt.Errorf("sports catalog entry %d: slug is required", i)
		}
		if _, dup := seen[slug]; dup {
			return nil, fmt.Errorf("sports catalog entry %d: duplicate slug %q", i, slug)
		}
		seen[slug] = struct{}{}

		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = strings.ToUpper(slug[:1]) + slug[1:]
		}
		live := true
		if entry.Live != nil {
			live = *entry.Live
		}
		out = append(out, sport.Sport{
			Slug:        slug,
			Name:        name,
			Kind:        sport.ParseKind(entry.Kind),
			LiveFormat:  sport.ParseFeedFormat(entry.LiveFormat),
			LiveEnabled: live,
		})
	}
	return out, nil
}
