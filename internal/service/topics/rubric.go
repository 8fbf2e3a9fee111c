package topics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rubric enumerates the fixed vocabulary the analyzer scores against:
// domain categories with their trigger keywords, stopwords, curated
// multi-word domain terms, and the markers that flag academic material.
type Rubric struct {
	Categories      map[string][]string `yaml:"categories"`
	Stopwords       []string            `yaml:"stopwords"`
	DomainTerms     []string            `yaml:"domain_terms"`
	AcademicMarkers []string            `yaml:"academic_markers"`
	TechnicalHints  []string            `yaml:"technical_hints"`
}

// LoadRubric reads a YAML rubric file. Missing sections fall back to the
// defaults, so a file may override just the stopword list.
func LoadRubric(path string) (Rubric, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("op=topics.LoadRubric path=%s: %w", path, err)
	}
	r := Rubric{}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Rubric{}, fmt.Errorf("op=topics.LoadRubric path=%s: %w", path, err)
	}
	def := DefaultRubric()
	if len(r.Categories) == 0 {
		r.Categories = def.Categories
	}
	if len(r.Stopwords) == 0 {
		r.Stopwords = def.Stopwords
	}
	if len(r.DomainTerms) == 0 {
		r.DomainTerms = def.DomainTerms
	}
	if len(r.AcademicMarkers) == 0 {
		r.AcademicMarkers = def.AcademicMarkers
	}
	if len(r.TechnicalHints) == 0 {
		r.TechnicalHints = def.TechnicalHints
	}
	return r, nil
}

// DefaultRubric returns the compiled-in vocabulary.
func DefaultRubric() Rubric {
	return Rubric{
		Categories: map[string][]string{
			"technology":    {"software", "hardware", "computer", "digital", "internet", "tech", "app", "device", "platform", "cloud"},
			"science":       {"research", "study", "experiment", "discovery", "physics", "chemistry", "biology", "scientist", "theory"},
			"education":     {"learn", "teach", "course", "tutorial", "lesson", "school", "university", "student", "training"},
			"business":      {"company", "market", "startup", "revenue", "investment", "finance", "entrepreneur", "strategy", "product"},
			"health":        {"medical", "doctor", "disease", "treatment", "wellness", "fitness", "nutrition", "therapy", "patient"},
			"entertainment": {"movie", "music", "game", "show", "film", "artist", "album", "series", "streaming"},
			"news":          {"breaking", "report", "announcement", "update", "headline", "journalist", "coverage"},
			"lifestyle":     {"travel", "food", "fashion", "home", "recipe", "hobby", "culture", "design"},
			"social":        {"community", "network", "follower", "viral", "trending", "engagement", "influencer"},
			"academic":      {"paper", "journal", "thesis", "citation", "peer", "abstract", "methodology", "conference"},
		},
		Stopwords: []string{
			"the", "and", "for", "are", "but", "not", "you", "all", "can", "her", "was",
			"one", "our", "out", "day", "get", "has", "him", "his", "how", "man", "new",
			"now", "old", "see", "two", "way", "who", "its", "did", "yes", "had", "let",
			"put", "say", "she", "too", "use", "that", "with", "have", "this", "will",
			"your", "from", "they", "know", "want", "been", "good", "much", "some",
			"time", "very", "when", "come", "here", "just", "like", "long", "make",
			"many", "more", "only", "over", "such", "take", "than", "them", "well",
			"were", "what", "about", "after", "also", "into", "other", "their",
			"there", "these", "which", "while", "would", "could", "should",
		},
		DomainTerms: []string{
			"machine learning", "deep learning", "neural network", "artificial intelligence",
			"data science", "computer vision", "natural language", "open source",
			"software engineering", "web development", "operating system",
			"distributed systems", "cloud computing", "knowledge graph",
			"climate change", "quantum computing", "social media",
		},
		AcademicMarkers: []string{
			"abstract", "doi", "arxiv", "et al", "references", "bibliography",
			"proceedings", "journal of", "university",
		},
		TechnicalHints: []string{
			"data", "code", "algorithm", "comput", "program", "system", "network",
			"server", "protocol", "api",
		},
	}
}
