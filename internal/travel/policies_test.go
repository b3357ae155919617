package travel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"concierge/internal/retrieval"
	"concierge/internal/tools"
)

// constEngine embeds everything to the same unit vector, enough to
// exercise the tool plumbing.
type constEngine struct{}

func (constEngine) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e constEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i], _ = e.Embed(ctx, texts[i])
	}
	return out, nil
}

func (constEngine) Dimensions() int { return 2 }
func (constEngine) Name() string    { return "const" }

func emptyPolicyIndex(t *testing.T) *retrieval.Index {
	t.Helper()
	ix, err := retrieval.Build(context.Background(), nil, constEngine{})
	require.NoError(t, err)
	return ix
}

func TestLookupPolicyTool(t *testing.T) {
	docs := retrieval.SplitSections("## Baggage\nTwo bags allowed.\n\n## Refunds\nRefunds within 24 hours.")
	ix, err := retrieval.Build(context.Background(), docs, constEngine{})
	require.NoError(t, err)

	reg := tools.NewRegistry()
	reg.MustRegister(policyTool(ix))

	result, err := reg.Execute(context.Background(), "lookup_policy",
		map[string]any{"query": "how many bags can I bring"})
	require.NoError(t, err)
	require.Equal(t, "## Baggage\nTwo bags allowed.\n\n## Refunds\nRefunds within 24 hours.", result.Output)
}

func TestLookupPolicyEmptyCorpus(t *testing.T) {
	reg := tools.NewRegistry()
	reg.MustRegister(policyTool(emptyPolicyIndex(t)))

	result, err := reg.Execute(context.Background(), "lookup_policy",
		map[string]any{"query": "anything"})
	require.NoError(t, err)
	require.Equal(t, "", result.Output)
}
