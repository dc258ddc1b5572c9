// Package dedup clusters near-duplicate articles by headline similarity and
// promotes widely-covered stories. Clustering is deterministic: an article
// joins the best-scoring existing cluster above the threshold, never causes
// merges or splits of clusters formed earlier.
package dedup

import (
	"sort"
	"strings"
	"time"

	"news-enricher/internal/common/logging"
	"news-enricher/internal/fingerprint"
)

// DefaultThreshold is the minimum headline similarity for two articles to be
// considered the same story on headlines alone.
const DefaultThreshold = 0.7

// Rephrased headlines of the same story score below the headline threshold,
// so a secondary join compares descriptions: a weaker headline match combined
// with a strong description match still groups the articles.
const (
	// HeadlineFloor is the minimum headline similarity for the description
	// comparison to apply at all.
	HeadlineFloor = 0.5
	// DescriptionThreshold is the minimum description similarity for the
	// secondary join.
	DescriptionThreshold = 0.6
	// descriptionPrefixLen bounds how much of the description is compared;
	// leads converge on the same facts, bodies diverge.
	descriptionPrefixLen = 200
)

// FeaturedSourceCount is how many distinct sources a story needs before it
// is promoted to featured.
const FeaturedSourceCount = 2

// Article is the unit of clustering input.
type Article struct {
	Fingerprint fingerprint.Fingerprint
	Title       string
	Description string
	Source      string
	URL         string
	PublishedAt time.Time
}

// Cluster is one story: a representative article plus the duplicates folded
// into it.
type Cluster struct {
	Representative Article
	Members        []Article
	Sources        map[string]struct{}
	Featured       bool
}

// SourceCount reports the number of distinct sources covering the story.
func (c *Cluster) SourceCount() int {
	return len(c.Sources)
}

// Latest returns the most recent publication time across the cluster.
func (c *Cluster) Latest() time.Time {
	latest := c.Representative.PublishedAt
	for _, m := range c.Members {
		if m.PublishedAt.After(latest) {
			latest = m.PublishedAt
		}
	}
	return latest
}

// Detector folds a stream of articles into clusters.
type Detector struct {
	threshold float64
	clusters  []*Cluster
	logger    logging.Logger
}

// Options configures a Detector.
type Options struct {
	// Threshold overrides DefaultThreshold when > 0.
	Threshold float64
	Logger    logging.Logger
}

func NewDetector(opts Options) *Detector {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Detector{
		threshold: threshold,
		logger:    logger,
	}
}

// Add places the article into the best-matching existing cluster, or opens a
// new single-member cluster when nothing qualifies. A cluster qualifies on
// headline similarity alone, or on a weaker headline match backed by a strong
// description match. It returns the cluster the article landed in.
func (d *Detector) Add(article Article) *Cluster {
	titleTokens := tokenize(article.Title)
	descTokens := descriptionTokens(article.Description)

	var best *Cluster
	bestScore := 0.0
	for _, c := range d.clusters {
		score := Similarity(titleTokens, tokenize(c.Representative.Title))
		qualifies := score >= d.threshold
		if !qualifies && score >= HeadlineFloor {
			descScore := Similarity(descTokens, descriptionTokens(c.Representative.Description))
			qualifies = descScore >= DescriptionThreshold
		}
		// Strict > keeps assignment stable when two clusters tie: the
		// earlier cluster wins.
		if qualifies && score > bestScore {
			best = c
			bestScore = score
		}
	}

	if best == nil {
		best = &Cluster{
			Representative: article,
			Sources:        map[string]struct{}{article.Source: {}},
		}
		d.clusters = append(d.clusters, best)
		return best
	}

	best.Members = append(best.Members, article)
	best.Sources[article.Source] = struct{}{}
	if !best.Featured && best.SourceCount() >= FeaturedSourceCount {
		best.Featured = true
		d.logger.Debug("story promoted to featured",
			logging.String("title", best.Representative.Title),
			logging.Int("sources", best.SourceCount()),
		)
	}
	return best
}

// Clusters returns all clusters ranked by coverage: distinct source count
// descending, then most recent publication descending.
func (d *Detector) Clusters() []*Cluster {
	out := make([]*Cluster, len(d.clusters))
	copy(out, d.clusters)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourceCount() != out[j].SourceCount() {
			return out[i].SourceCount() > out[j].SourceCount()
		}
		return out[i].Latest().After(out[j].Latest())
	})
	return out
}

// Featured returns only the clusters covered by enough distinct sources,
// in the same ranking as Clusters.
func (d *Detector) Featured() []*Cluster {
	var out []*Cluster
	for _, c := range d.Clusters() {
		if c.Featured {
			out = append(out, c)
		}
	}
	return out
}

// Similarity scores two token sets with the Dice coefficient:
// 2*|A∩B| / (|A|+|B|). Two empty titles are not similar.
func Similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

// descriptionTokens tokenizes the leading slice of a description for the
// secondary join comparison.
func descriptionTokens(description string) map[string]struct{} {
	runes := []rune(description)
	if len(runes) > descriptionPrefixLen {
		runes = runes[:descriptionPrefixLen]
	}
	return tokenize(string(runes))
}

// tokenize lowercases the title and splits it into a set of alphanumeric
// word tokens. Punctuation and casing never affect similarity.
func tokenize(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	word := strings.Builder{}
	flush := func() {
		if word.Len() > 0 {
			tokens[word.String()] = struct{}{}
			word.Reset()
		}
	}
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
