// Package retrieval implements the semantic policy retriever: a small
// in-memory dense index over the company policy manual, built once at
// startup and read-only afterwards.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"concierge/internal/embedding"
	"concierge/internal/logging"
)

// embedParallelism bounds concurrent embedding calls at build time.
const embedParallelism = 4

// ScoredDocument is one retrieval hit.
type ScoredDocument struct {
	Content    string
	Similarity float64
}

// Index holds the embedded corpus: documents and their unit vectors,
// index-aligned. Build it once with Build; afterwards it is safe for
// concurrent readers.
type Index struct {
	engine embedding.Engine
	docs   []string
	vecs   [][]float32
}

// SplitSections splits a markdown corpus into document units. A unit
// boundary is a "##" heading at the start of a line; the heading stays
// with its section. Blank units are dropped.
func SplitSections(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && strings.HasPrefix(text[i:], "\n##") {
			if chunk := strings.TrimSpace(text[start:i]); chunk != "" {
				out = append(out, chunk)
			}
			start = i
		}
	}
	if chunk := strings.TrimSpace(text[start:]); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

// LoadCorpus reads the policy manual from an http(s) URL or a local
// file path.
func LoadCorpus(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch corpus: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("corpus fetch returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read corpus: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus file: %w", err)
	}
	return string(data), nil
}

// Build embeds every document and returns a ready index. Embedding
// runs with bounded parallelism; vectors are normalized so queries can
// score by plain dot product.
func Build(ctx context.Context, docs []string, engine embedding.Engine) (*Index, error) {
	timer := logging.StartTimer(logging.CategoryRetrieval, "Build")
	defer timer.Stop()

	ix := &Index{
		engine: engine,
		docs:   docs,
		vecs:   make([][]float32, len(docs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)
	for i, doc := range docs {
		g.Go(func() error {
			vec, err := engine.Embed(gctx, doc)
			if err != nil {
				return fmt.Errorf("failed to embed document %d: %w", i, err)
			}
			ix.vecs[i] = embedding.Normalize(vec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.Retrieval("Built policy index: %d documents, engine=%s", len(docs), engine.Name())
	return ix, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Query returns the k highest-scoring documents for the query text,
// ordered strictly by descending similarity with ties broken by
// original document order. k >= len(docs) returns every document. The
// top-k are chosen by partial selection; only the selected subset is
// sorted.
func (ix *Index) Query(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	if len(ix.docs) == 0 || k <= 0 {
		return nil, nil
	}

	qvec, err := ix.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	embedding.Normalize(qvec)

	scores := make([]float64, len(ix.docs))
	for i, vec := range ix.vecs {
		s, err := embedding.Dot(qvec, vec)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		scores[i] = s
	}

	if k > len(ix.docs) {
		k = len(ix.docs)
	}

	// Partial selection of the k best indices. Strict comparison keeps
	// the earlier document on ties.
	selected := make([]int, 0, k)
	worst := -1 // position in selected of the lowest score
	for i := range scores {
		if len(selected) < k {
			selected = append(selected, i)
			if worst == -1 || scores[i] < scores[selected[worst]] {
				worst = len(selected) - 1
			}
			continue
		}
		if scores[i] > scores[selected[worst]] {
			selected[worst] = i
			worst = 0
			for j := 1; j < len(selected); j++ {
				if scores[selected[j]] < scores[selected[worst]] {
					worst = j
				}
			}
		}
	}

	sort.Slice(selected, func(a, b int) bool {
		if scores[selected[a]] != scores[selected[b]] {
			return scores[selected[a]] > scores[selected[b]]
		}
		return selected[a] < selected[b]
	})

	out := make([]ScoredDocument, len(selected))
	for i, idx := range selected {
		out[i] = ScoredDocument{Content: ix.docs[idx], Similarity: scores[idx]}
	}
	logging.RetrievalDebug("Query returned %d/%d documents (top=%.4f)", len(out), len(ix.docs), out[0].Similarity)
	return out, nil
}

// Lookup returns the top two matching policy sections joined by a
// blank line, or the empty string when the corpus is empty.
func (ix *Index) Lookup(ctx context.Context, query string) (string, error) {
	hits, err := ix.Query(ctx, query, 2)
	if err != nil {
		return "", err
	}
	contents := make([]string, len(hits))
	for i, h := range hits {
		contents[i] = h.Content
	}
	return strings.Join(contents, "\n\n"), nil
}
