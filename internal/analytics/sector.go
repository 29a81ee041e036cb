package analytics

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// SectorVocabulary maps free-text sector context to a sector name. Entries are
// tried in order; the first sector with a keyword contained in the context wins.
type SectorVocabulary struct {
	Sectors []SectorKeywords `yaml:"sectors"`
}

type SectorKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultSectorVocabulary is the built-in ten-sector keyword map.
func DefaultSectorVocabulary() SectorVocabulary {
	return SectorVocabulary{Sectors: []SectorKeywords{
		{Name: "technology", Keywords: []string{"tech", "technology", "software", "semiconductor"}},
		{Name: "healthcare", Keywords: []string{"healthcare", "health", "biotech", "pharma", "pharmaceutical"}},
		{Name: "financial", Keywords: []string{"financial", "finance", "bank", "insurance"}},
		{Name: "energy", Keywords: []string{"energy", "oil", "gas"}},
		{Name: "consumer", Keywords: []string{"consumer", "retail", "discretionary", "staples"}},
		{Name: "industrial", Keywords: []string{"industrial", "manufacturing"}},
		{Name: "materials", Keywords: []string{"materials", "commodity", "commodities"}},
		{Name: "utilities", Keywords: []string{"utilities", "utility"}},
		{Name: "real estate", Keywords: []string{"real estate", "reit"}},
		{Name: "communication", Keywords: []string{"communication", "telecom", "media"}},
	}}
}

// LoadSectorVocabulary reads a YAML vocabulary file. An empty path returns the default.
func LoadSectorVocabulary(path string) (SectorVocabulary, error) {
	if path == "" {
		return DefaultSectorVocabulary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SectorVocabulary{}, fmt.Errorf("read sector vocabulary: %w", err)
	}
	return ParseSectorVocabulary(data)
}

func ParseSectorVocabulary(data []byte) (SectorVocabulary, error) {
	var v SectorVocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return SectorVocabulary{}, fmt.Errorf("parse sector vocabulary: %w", err)
	}
	if len(v.Sectors) == 0 {
		return SectorVocabulary{}, fmt.Errorf("sector vocabulary has no sectors")
	}
	for i, s := range v.Sectors {
		if strings.TrimSpace(s.Name) == "" {
			return SectorVocabulary{}, fmt.Errorf("sector %d has no name", i)
		}
		for j, kw := range s.Keywords {
			v.Sectors[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return v, nil
}

// Parse infers a sector from context. Unmatched context falls back to its
// first word when that is longer than two characters; ok is false otherwise.
func (v SectorVocabulary) Parse(context string) (sector string, ok bool) {
	if context == "" {
		return "", false
	}
	lower := strings.ToLower(context)
	for _, s := range v.Sectors {
		for _, kw := range s.Keywords {
			if strings.Contains(lower, kw) {
				return s.Name, true
			}
		}
	}
	fields := strings.Fields(lower)
	if len(fields) == 0 || utf8.RuneCountInString(fields[0]) <= 2 {
		return "", false
	}
	return fields[0], true
}

// ParseSectorFromContext uses the default vocabulary. A nil context yields nil.
func ParseSectorFromContext(context *string) *string {
	if context == nil {
		return nil
	}
	s, ok := DefaultSectorVocabulary().Parse(*context)
	if !ok {
		return nil
	}
	return &s
}
