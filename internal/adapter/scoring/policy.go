// Package scoring converts raw cosine similarities into domain-aware
// ranking scores. The policy is a fixed sequence of independent rules, each
// returning a strictly positive multiplier, so boosting never zeroes out or
// flips the sign of a base score. Rescoring is pure: it returns new results
// and never mutates its input.
package scoring

import (
	"sort"
	"strings"

	"rdb/config"
	"rdb/internal/domain"
)

// Rule is one independent scoring adjustment.
type Rule struct {
	Name   string
	Factor func(q Query, c domain.Chunk) float64
}

// Query carries the tokenized original and final query plus the derived
// intent classification, computed once per search.
type Query struct {
	Original string
	Final    string

	originalTokens []string
	finalTokens    []string
	tokenSet       map[string]struct{}
	overview       bool
}

// Policy applies the configured boost rules in a fixed order. The order
// does not change the math (rules are independent multipliers) but keeps
// score traces reproducible.
type Policy struct {
	cfg   config.ScoringConfig
	rules []Rule

	authorityTitles []string
	guidePatterns   []string
	topicClusters   map[string][]string
	indicatorWords  []string
	actionVerbs     []string
	overviewWords   map[string]struct{}
	shellTokens     []string
}

// New builds a policy from config, substituting built-in defaults for any
// zero or non-positive constant and any empty table.
func New(cfg config.ScoringConfig) *Policy {
	def := config.DefaultConfig().Scoring

	cfg.AuthoritySpecificBoost = orDefault(cfg.AuthoritySpecificBoost, def.AuthoritySpecificBoost)
	cfg.AuthorityGeneralBoost = orDefault(cfg.AuthorityGeneralBoost, def.AuthorityGeneralBoost)
	cfg.TopicBoost = orDefault(cfg.TopicBoost, def.TopicBoost)
	cfg.ComprehensiveBoost = orDefault(cfg.ComprehensiveBoost, def.ComprehensiveBoost)
	cfg.QualityLongBoost = orDefault(cfg.QualityLongBoost, def.QualityLongBoost)
	cfg.QualityMediumBoost = orDefault(cfg.QualityMediumBoost, def.QualityMediumBoost)
	cfg.ActionVerbBoost = orDefault(cfg.ActionVerbBoost, def.ActionVerbBoost)
	cfg.CodeBoost = orDefault(cfg.CodeBoost, def.CodeBoost)
	cfg.OverviewLargeBoost = orDefault(cfg.OverviewLargeBoost, def.OverviewLargeBoost)
	cfg.OverviewMediumBoost = orDefault(cfg.OverviewMediumBoost, def.OverviewMediumBoost)
	cfg.OverviewSmallFactor = orDefault(cfg.OverviewSmallFactor, def.OverviewSmallFactor)
	cfg.NarrowSmallBoost = orDefault(cfg.NarrowSmallBoost, def.NarrowSmallBoost)
	if cfg.RefinedMatchCeiling <= 0 {
		cfg.RefinedMatchCeiling = def.RefinedMatchCeiling
	}
	if cfg.OriginalMatchCeiling <= 0 {
		cfg.OriginalMatchCeiling = def.OriginalMatchCeiling
	}
	if cfg.TopicContentWindow <= 0 {
		cfg.TopicContentWindow = def.TopicContentWindow
	}
	if cfg.ComprehensiveMinHits <= 0 {
		cfg.ComprehensiveMinHits = def.ComprehensiveMinHits
	}
	if cfg.QualityLongThreshold <= 0 {
		cfg.QualityLongThreshold = def.QualityLongThreshold
	}
	if cfg.QualityMediumThreshold <= 0 {
		cfg.QualityMediumThreshold = def.QualityMediumThreshold
	}
	if cfg.ActionVerbMinHits <= 0 {
		cfg.ActionVerbMinHits = def.ActionVerbMinHits
	}

	p := &Policy{
		cfg:             cfg,
		authorityTitles: orTable(cfg.AuthorityTitles, defaultAuthorityTitles),
		guidePatterns:   orTable(cfg.GuidePatterns, defaultGuidePatterns),
		indicatorWords:  orTable(cfg.IndicatorWords, defaultIndicatorWords),
		actionVerbs:     orTable(cfg.ActionVerbs, defaultActionVerbs),
		shellTokens:     orTable(cfg.ShellTokens, defaultShellTokens),
	}

	p.topicClusters = cfg.TopicClusters
	if len(p.topicClusters) == 0 {
		p.topicClusters = defaultTopicClusters
	}

	p.overviewWords = make(map[string]struct{})
	for _, w := range orTable(cfg.OverviewWords, defaultOverviewWords) {
		p.overviewWords[strings.ToLower(w)] = struct{}{}
	}

	p.rules = []Rule{
		{Name: "authority", Factor: p.authorityFactor},
		{Name: "topic", Factor: p.topicFactor},
		{Name: "comprehensive", Factor: p.comprehensiveFactor},
		{Name: "quality", Factor: p.qualityFactor},
		{Name: "granularity", Factor: p.granularityFactor},
		{Name: "exact_match", Factor: p.exactMatchFactor},
	}

	return p
}

func orDefault(v, d float64) float64 {
	if v <= 0 {
		return d
	}
	return v
}

func orTable(v, d []string) []string {
	if len(v) == 0 {
		return d
	}
	return v
}

// NewQuery tokenizes the original and final query once for a search.
func (p *Policy) NewQuery(original, final string) Query {
	q := Query{
		Original:       original,
		Final:          final,
		originalTokens: tokenize(original),
		finalTokens:    tokenize(final),
	}

	q.tokenSet = make(map[string]struct{}, len(q.originalTokens)+len(q.finalTokens))
	for _, t := range q.originalTokens {
		q.tokenSet[t] = struct{}{}
	}
	for _, t := range q.finalTokens {
		q.tokenSet[t] = struct{}{}
	}

	for _, t := range q.originalTokens {
		if _, ok := p.overviewWords[t]; ok {
			q.overview = true
			break
		}
	}

	return q
}

// Rules exposes the rule sequence for testing individual factors.
func (p *Policy) Rules() []Rule {
	return p.rules
}

// Score applies every rule to a single base similarity.
func (p *Policy) Score(q Query, c domain.Chunk, base float64) float64 {
	score := base
	for _, rule := range p.rules {
		score *= rule.Factor(q, c)
	}
	return score
}

// Rescore applies the policy to every result and returns a new slice sorted
// descending by boosted score. Input results are not mutated.
func (p *Policy) Rescore(original, final string, results []domain.SearchResult) []domain.SearchResult {
	if len(results) == 0 {
		return nil
	}

	q := p.NewQuery(original, final)

	out := make([]domain.SearchResult, len(results))
	for i, r := range results {
		r.Score = p.Score(q, r.Chunk, r.Score)
		out[i] = r
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

// authorityFactor boosts canonical configuration/installation pages. At
// most one tier applies.
func (p *Policy) authorityFactor(_ Query, c domain.Chunk) float64 {
	title := strings.ToLower(c.PageTitle)
	for _, pattern := range p.authorityTitles {
		if strings.Contains(title, pattern) {
			return p.cfg.AuthoritySpecificBoost
		}
	}
	for _, pattern := range p.guidePatterns {
		if strings.Contains(title, pattern) {
			return p.cfg.AuthorityGeneralBoost
		}
	}
	return 1.0
}

// topicFactor boosts results whose title or leading content mentions a
// technical synonym of a colloquial query term. Applied at most once no
// matter how many terms match.
func (p *Policy) topicFactor(q Query, c domain.Chunk) float64 {
	title := strings.ToLower(c.PageTitle)
	content := strings.ToLower(c.Content)
	if len(content) > p.cfg.TopicContentWindow {
		content = content[:p.cfg.TopicContentWindow]
	}

	for token := range q.tokenSet {
		cluster, ok := p.topicClusters[token]
		if !ok {
			continue
		}
		for _, term := range cluster {
			if strings.Contains(title, term) || strings.Contains(content, term) {
				return p.cfg.TopicBoost
			}
		}
	}
	return 1.0
}

// comprehensiveFactor boosts results whose title or section path carries
// enough generic documentation indicator words.
func (p *Policy) comprehensiveFactor(_ Query, c domain.Chunk) float64 {
	haystack := strings.ToLower(c.PageTitle + " " + c.SectionPath)
	hits := 0
	for _, word := range p.indicatorWords {
		if strings.Contains(haystack, word) {
			hits++
		}
	}
	if hits >= p.cfg.ComprehensiveMinHits {
		return p.cfg.ComprehensiveBoost
	}
	return 1.0
}

// qualityFactor combines the length tier, actionable-verb and
// shell-command sub-boosts into one content-quality multiplier.
func (p *Policy) qualityFactor(_ Query, c domain.Chunk) float64 {
	factor := 1.0

	switch {
	case len(c.Content) > p.cfg.QualityLongThreshold:
		factor *= p.cfg.QualityLongBoost
	case len(c.Content) > p.cfg.QualityMediumThreshold:
		factor *= p.cfg.QualityMediumBoost
	}

	content := strings.ToLower(c.Content)
	verbs := 0
	for _, verb := range p.actionVerbs {
		if strings.Contains(content, verb) {
			verbs++
		}
	}
	if verbs >= p.cfg.ActionVerbMinHits {
		factor *= p.cfg.ActionVerbBoost
	}

	for _, token := range p.shellTokens {
		if strings.Contains(c.Content, token) {
			factor *= p.cfg.CodeBoost
			break
		}
	}

	return factor
}

// granularityFactor prefers large chunks for overview-seeking queries and
// small chunks for narrow ones.
func (p *Policy) granularityFactor(q Query, c domain.Chunk) float64 {
	if q.overview {
		switch c.ChunkType {
		case domain.ChunkLarge:
			return p.cfg.OverviewLargeBoost
		case domain.ChunkMedium:
			return p.cfg.OverviewMediumBoost
		case domain.ChunkSmall:
			return p.cfg.OverviewSmallFactor
		}
		return 1.0
	}
	if c.ChunkType == domain.ChunkSmall {
		return p.cfg.NarrowSmallBoost
	}
	return 1.0
}

// exactMatchFactor scales with the fraction of query tokens literally
// present in the page title. Refined-query overlap carries a larger boost
// ceiling than original-query overlap; when no refinement happened only the
// original ceiling applies.
func (p *Policy) exactMatchFactor(q Query, c domain.Chunk) float64 {
	titleTokens := tokenize(c.PageTitle)
	titleSet := make(map[string]struct{}, len(titleTokens))
	for _, t := range titleTokens {
		titleSet[t] = struct{}{}
	}

	factor := 1.0
	if q.Final != q.Original {
		factor *= 1.0 + p.cfg.RefinedMatchCeiling*overlapFraction(q.finalTokens, titleSet)
	}
	factor *= 1.0 + p.cfg.OriginalMatchCeiling*overlapFraction(q.originalTokens, titleSet)
	return factor
}

func overlapFraction(tokens []string, titleSet map[string]struct{}) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if _, ok := titleSet[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// tokenize lowercases, folds underscores to spaces and strips common
// punctuation, matching how page titles are normalized for matching.
func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "_", " "))
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,:;!?'\"()[]")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
