// Package topics derives ranked topic tags from extracted text. The
// analyzer is pure and deterministic: identical input always yields the
// same ordered output.
package topics

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/thinmanj/logseq-enricher/pkg/textx"
)

const minTokenLen = 3

var (
	hashtagRe      = regexp.MustCompile(`#([A-Za-z][A-Za-z0-9_]{2,})`)
	quotedPhraseRe = regexp.MustCompile(`"([^"]{3,60})"`)
)

// Analyzer scores candidate tags against a fixed rubric.
type Analyzer struct {
	rubric    Rubric
	maxTopics int
	stopwords map[string]bool
	domain    map[string]bool
}

// New builds an analyzer emitting at most maxTopics tags per input.
func New(rubric Rubric, maxTopics int) *Analyzer {
	if maxTopics <= 0 {
		maxTopics = 5
	}
	stop := make(map[string]bool, len(rubric.Stopwords))
	for _, w := range rubric.Stopwords {
		stop[w] = true
	}
	dom := make(map[string]bool, len(rubric.DomainTerms))
	for _, t := range rubric.DomainTerms {
		dom[strings.ToLower(t)] = true
	}
	return &Analyzer{rubric: rubric, maxTopics: maxTopics, stopwords: stop, domain: dom}
}

type candidate struct {
	tag   string
	freq  int
	words int
}

// Analyze derives an ordered tag list from a title and body text. platform
// hints enable per-source hooks: hashtags for social posts, the academic
// tag for PDFs carrying academic markers.
func (a *Analyzer) Analyze(title, body, platform string) []string {
	// Title tokens weigh double: the blob duplicates the title.
	blob := title + " " + title + " " + body
	tokens := textx.Tokenize(blob, minTokenLen)
	if len(tokens) == 0 && platform == "" {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	titleTokens := make(map[string]bool)
	for _, t := range textx.Tokenize(title, minTokenLen) {
		titleTokens[t] = true
	}

	pool := make(map[string]candidate)
	add := func(tag string, f, words int) {
		if tag == "" {
			return
		}
		if c, ok := pool[tag]; !ok || f > c.freq {
			pool[tag] = candidate{tag: tag, freq: f, words: words}
		}
	}

	a.addCategoryHits(freq, add)
	a.addNGrams(tokens, add)
	a.addSingleTokens(tokens, freq, add)
	a.addPlatformHooks(blob, platform, add)
	a.addTitleCandidates(title, add)

	ranked := a.rank(pool, freq, titleTokens, len(tokens))
	return a.selectTags(ranked)
}

// addCategoryHits fires a category when any of its keywords appears.
// Categories iterate in sorted order for determinism.
func (a *Analyzer) addCategoryHits(freq map[string]int, add func(string, int, int)) {
	names := make([]string, 0, len(a.rubric.Categories))
	for name := range a.rubric.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		hits := 0
		for _, kw := range a.rubric.Categories[name] {
			hits += freq[kw]
		}
		if hits > 0 {
			add(name, hits, 1)
		}
	}
}

// addNGrams admits adjacent non-stopword bigrams and trigrams that either
// repeat or belong to the curated domain-term allowlist.
func (a *Analyzer) addNGrams(tokens []string, add func(string, int, int)) {
	counts := make(map[string]int)
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i : i+n]
			if a.anyStopword(gram) {
				continue
			}
			counts[strings.Join(gram, " ")]++
		}
	}
	for gram, c := range counts {
		if c >= 2 || a.domain[gram] {
			add(strings.ReplaceAll(gram, " ", "-"), c, strings.Count(gram, " ")+1)
		}
	}
}

// addSingleTokens admits non-stopword tokens, using a term-frequency
// heuristic with a prefix-variant boost as the pool admission score.
func (a *Analyzer) addSingleTokens(tokens []string, freq map[string]int, add func(string, int, int)) {
	total := len(tokens)
	if total == 0 {
		return
	}
	distinct := make([]string, 0, len(freq))
	for t := range freq {
		distinct = append(distinct, t)
	}
	sort.Strings(distinct)
	for _, t := range distinct {
		if a.stopwords[t] {
			continue
		}
		tf := 1.0 + 100.0*float64(freq[t])/float64(total)
		variants := 0
		if len(t) >= 4 {
			prefix := t[:4]
			for _, other := range distinct {
				if other != t && strings.HasPrefix(other, prefix) {
					variants++
				}
			}
		}
		tf *= 1 + 0.1*float64(variants)
		if tf <= 1 {
			continue
		}
		add(t, freq[t], 1)
	}
}

// addPlatformHooks handles hashtags on social posts and the explicit
// academic tag for PDFs whose preview shows academic markers.
func (a *Analyzer) addPlatformHooks(blob, platform string, add func(string, int, int)) {
	switch platform {
	case "twitter", "social":
		for _, m := range hashtagRe.FindAllStringSubmatch(blob, -1) {
			add(strings.ToLower(m[1]), 1, 1)
		}
	case "pdf", "academic":
		lowered := strings.ToLower(blob)
		for _, marker := range a.rubric.AcademicMarkers {
			if strings.Contains(lowered, marker) {
				add("academic", 1, 1)
				break
			}
		}
	}
}

// addTitleCandidates admits capitalized title tokens and quoted phrases.
func (a *Analyzer) addTitleCandidates(title string, add func(string, int, int)) {
	for _, word := range strings.Fields(title) {
		runes := []rune(word)
		if len(runes) < minTokenLen || !unicode.IsUpper(runes[0]) {
			continue
		}
		toks := textx.Tokenize(word, minTokenLen)
		if len(toks) != 1 || a.stopwords[toks[0]] {
			continue
		}
		add(toks[0], 1, 1)
	}
	for _, m := range quotedPhraseRe.FindAllStringSubmatch(title, -1) {
		toks := textx.Tokenize(m[1], minTokenLen)
		if len(toks) == 0 || len(toks) > 3 {
			continue
		}
		add(strings.Join(toks, "-"), 1, len(toks))
	}
}

type scored struct {
	tag   string
	score float64
}

// rank applies the scoring formula over the candidate pool.
func (a *Analyzer) rank(pool map[string]candidate, freq map[string]int, titleTokens map[string]bool, total int) []scored {
	out := make([]scored, 0, len(pool))
	for _, c := range pool {
		score := 2.0 * float64(c.freq)
		if a.inTitle(c.tag, titleTokens) {
			score += 10
		}
		if _, isCategory := a.rubric.Categories[c.tag]; isCategory {
			score += 5
		}
		score += 2.0 * float64(c.words)
		if a.domain[strings.ReplaceAll(c.tag, "-", " ")] {
			score += 8
		}
		if a.technical(c.tag) {
			score += 2
		}
		if total > 0 && float64(freq[c.tag]) > 0.05*float64(total) {
			score -= 3
		}
		out = append(out, scored{tag: c.tag, score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].tag < out[j].tag
	})
	return out
}

// selectTags walks the ranked list suppressing single-token tags whose root
// was already emitted by another single-token tag ("programs" after
// "programming"). Multi-word tags always pass.
func (a *Analyzer) selectTags(ranked []scored) []string {
	var tags []string
	roots := make(map[string]bool)
	for _, s := range ranked {
		if len(tags) >= a.maxTopics {
			break
		}
		if !strings.Contains(s.tag, "-") {
			r := root(s.tag)
			if roots[r] {
				continue
			}
			roots[r] = true
		}
		tags = append(tags, s.tag)
	}
	return tags
}

// root is the crude stem used to collapse morphological variants: the first
// five runes for longer words, the word itself otherwise.
func root(tag string) string {
	runes := []rune(tag)
	if len(runes) > 5 {
		return string(runes[:5])
	}
	return tag
}

func (a *Analyzer) inTitle(tag string, titleTokens map[string]bool) bool {
	for _, part := range strings.Split(tag, "-") {
		if !titleTokens[part] {
			return false
		}
	}
	return true
}

func (a *Analyzer) technical(tag string) bool {
	if strings.ContainsAny(tag, "0123456789") {
		return true
	}
	for _, hint := range a.rubric.TechnicalHints {
		if strings.Contains(tag, hint) {
			return true
		}
	}
	return false
}

func (a *Analyzer) anyStopword(gram []string) bool {
	for _, t := range gram {
		if a.stopwords[t] {
			return true
		}
	}
	return false
}
