package dedup

import (
	"fmt"

	"github.com/osintlab/conflictmap/internal/embedding"
	"github.com/osintlab/conflictmap/pkg/models"
)

// Plan is the outcome of one grouping pass over a batch. It is created fresh
// per run, consumed by the store, and discarded; the engine keeps no state
// between runs.
type Plan struct {
	// Groups partitions the batch: each group lists indices into the input
	// slice, seed first, and every index appears in exactly one group.
	Groups [][]int
	// KeepIDs holds the canonical survivor of each group, index-aligned with
	// Groups. The survivor is always the group's seed — the first member in
	// batch order — so the caller's ordering decides which duplicate lives.
	KeepIDs []string
	// DeleteIDs flattens every non-survivor member of every multi-member
	// group. Duplicate-free by construction.
	DeleteIDs []string
}

// GroupBatch partitions an ordered batch of reports into duplicate groups
// using a single left-to-right pass, then derives the deletion plan. The
// embeddings slice must be index-aligned with reports.
//
// Grouping is seed-based single-link, not transitive closure: every candidate
// is compared against group seeds only. If report j matches seed i, and k
// would match j but not i, k still starts its own group — j was marked
// visited before k could be compared against it. This mirrors the accepted
// behavior of the original pass; replacing it with full transitive merging
// would change which reports get deleted and needs a product decision first.
func GroupBatch(reports []*models.Report, embeddings [][]float32, cfg Config) (*Plan, error) {
	if len(reports) != len(embeddings) {
		return nil, fmt.Errorf("batch misaligned: %d reports but %d embeddings", len(reports), len(embeddings))
	}
	if err := models.ValidateBatch(reports); err != nil {
		return nil, fmt.Errorf("validate batch: %w", err)
	}

	n := len(reports)
	visited := make([]bool, n)
	groups := make([][]int, 0, n)

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		group := []int{i}
		visited[i] = true

		for j := i + 1; j < n; j++ {
			if visited[j] {
				continue
			}
			// Pairwise similarity is computed on demand; only pairs that
			// survive the cheap gates inside Matches ever needed it, but the
			// cosine itself is cheap enough to compute unconditionally.
			sim := embedding.CosineSimilarity(embeddings[i], embeddings[j])
			if Matches(reports[i], reports[j], sim, cfg) {
				group = append(group, j)
				visited[j] = true
			}
		}

		// Singleton groups are valid: they represent no duplication.
		groups = append(groups, group)
	}

	keepIDs, deleteIDs := planDeletions(reports, groups)
	return &Plan{Groups: groups, KeepIDs: keepIDs, DeleteIDs: deleteIDs}, nil
}

// planDeletions maps groups to the surviving id per group and the flat list
// of ids to remove. Pure transformation, no I/O.
func planDeletions(reports []*models.Report, groups [][]int) (keepIDs, deleteIDs []string) {
	keepIDs = make([]string, len(groups))
	for g, group := range groups {
		keepIDs[g] = reports[group[0]].ID
		for _, idx := range group[1:] {
			deleteIDs = append(deleteIDs, reports[idx].ID)
		}
	}
	return keepIDs, deleteIDs
}
