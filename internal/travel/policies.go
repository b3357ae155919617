package travel

import (
	"context"

	"concierge/internal/retrieval"
	"concierge/internal/tools"
)

// policyTool wraps the policy retriever as a tool so assistants can
// consult the company manual before committing to anything.
func policyTool(index *retrieval.Index) *tools.Tool {
	return &tools.Tool{
		Name:        "lookup_policy",
		Description: "Consult the company policies to check whether certain options are permitted.",
		Schema: tools.Schema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {Type: "string", Description: "The user's policy-related question or search query."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return index.Lookup(ctx, stringArg(args, "query"))
		},
	}
}
