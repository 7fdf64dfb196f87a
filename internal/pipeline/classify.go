package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/daybrief/internal/ai"
	"github.com/hoanghai1803/daybrief/internal/metrics"
	"github.com/hoanghai1803/daybrief/internal/models"
)

const (
	// DefaultBatchSize is the number of items per classification prompt.
	DefaultBatchSize = 10

	classifyConcurrency = 3
	classifyCacheSize   = 2048
)

var classifyLineRe = regexp.MustCompile(`^(\d+):\s*(.+)$`)

// Classifier relabels items through a generator and drops anything outside
// the caller's enabled categories.
type Classifier struct {
	gen       ai.Generator
	batchSize int
	cache     *lru.Cache[string, string]
}

// NewClassifier creates a Classifier. gen may be nil, in which case every
// item passes through unclassified.
func NewClassifier(gen ai.Generator, batchSize int) *Classifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	cache, err := lru.New[string, string](classifyCacheSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Classifier{gen: gen, batchSize: batchSize, cache: cache}
}

// decision is the outcome for one input item.
type decision struct {
	keep     bool
	category string
}

// Classify returns the items that survive classification, recategorized,
// in input order. Items in a reserved category or from a curated feed pass
// through unchanged. A batch whose call fails passes through with its
// original categories.
func (c *Classifier) Classify(ctx context.Context, items []models.ContentItem, allowed []string, modelHint string) []models.ContentItem {
	allowedSet := make(map[string]bool, len(allowed))
	for _, cat := range allowed {
		allowedSet[strings.ToLower(strings.TrimSpace(cat))] = true
	}
	vocab := vocabulary(allowedSet)
	vocabKey := strings.Join(vocab, ",")

	decisions := make([]decision, len(items))
	var pending []int
	for i, it := range items {
		decisions[i] = decision{keep: true, category: it.Category}
		if it.Curated || models.IsReservedCategory(it.Category) {
			continue
		}
		if cat, ok := c.cache.Get(cacheKey(it.Title, vocabKey)); ok {
			decisions[i] = decision{keep: allowedSet[cat], category: cat}
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 && c.gen == nil {
		slog.Warn("no generation provider configured, skipping classification", "items", len(pending))
		pending = nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classifyConcurrency)
	for start := 0; start < len(pending); start += c.batchSize {
		batch := pending[start:min(start+c.batchSize, len(pending))]
		g.Go(func() error {
			labels, err := c.classifyBatch(gctx, items, batch, vocab, modelHint)
			if err != nil {
				slog.Warn("classification batch degraded, keeping original categories",
					"items", len(batch), "error", err)
				metrics.ClassificationBatchesTotal.WithLabelValues(metrics.ResultDegraded).Inc()
				return nil
			}
			metrics.ClassificationBatchesTotal.WithLabelValues(metrics.ResultSuccess).Inc()

			mu.Lock()
			defer mu.Unlock()
			for j, idx := range batch {
				cat := labels[j]
				c.cache.Add(cacheKey(items[idx].Title, vocabKey), cat)
				decisions[idx] = decision{keep: allowedSet[cat], category: cat}
			}
			return nil
		})
	}
	// Batch failures are absorbed above.
	_ = g.Wait()

	out := make([]models.ContentItem, 0, len(items))
	dropped := 0
	for i, it := range items {
		d := decisions[i]
		if !d.keep {
			dropped++
			continue
		}
		it.Category = d.category
		out = append(out, it)
	}
	if dropped > 0 {
		slog.Info("classification dropped items outside enabled categories", "dropped", dropped, "kept", len(out))
	}
	return out
}

// classifyBatch returns one label per batch entry. Entries the response
// does not mention are labeled general.
func (c *Classifier) classifyBatch(ctx context.Context, items []models.ContentItem, batch []int, vocab []string, modelHint string) ([]string, error) {
	entries := make([]ai.ClassifyEntry, len(batch))
	for j, idx := range batch {
		entries[j] = ai.ClassifyEntry{Index: j, Title: items[idx].Title, Content: items[idx].Body}
	}

	resp, err := c.gen.GenerateText(ctx, ai.ClassificationPrompt(entries, vocab), modelHint)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(batch))
	for j := range labels {
		labels[j] = models.CategoryGeneral
	}
	for idx, cat := range ParseClassification(resp) {
		if idx >= 0 && idx < len(labels) {
			labels[idx] = cat
		}
	}
	return labels, nil
}

// ParseClassification parses "index: category" lines. Categories are
// lowercased; lines that do not match are ignored.
func ParseClassification(resp string) map[int]string {
	out := make(map[int]string)
	for _, line := range strings.Split(resp, "\n") {
		m := classifyLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cat := strings.ToLower(strings.TrimSpace(m[2]))
		cat = strings.Trim(cat, " .,;'\"`*")
		if cat != "" {
			out[idx] = cat
		}
	}
	return out
}

// vocabulary is the sorted enabled set plus the general fallback. Weather
// and local only come from their own adapters and are never offered.
func vocabulary(allowed map[string]bool) []string {
	vocab := make([]string, 0, len(allowed)+1)
	for cat := range allowed {
		if cat == "" || cat == models.CategoryWeather || cat == models.CategoryLocal {
			continue
		}
		vocab = append(vocab, cat)
	}
	if !allowed[models.CategoryGeneral] {
		vocab = append(vocab, models.CategoryGeneral)
	}
	sort.Strings(vocab)
	return vocab
}

func cacheKey(title, vocabKey string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + vocabKey
}
