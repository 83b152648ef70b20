package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/resolve"
)

// MethodCleanup marks placeholder removals.
const MethodCleanup = "cleanup"

// SpecCleanup is the per-spec outcome of Cleanup.
type SpecCleanup struct {
	Removed int
	Kept    int
}

// CleanupResult summarizes a cleanup pass.
type CleanupResult struct {
	Specs   map[string]SpecCleanup
	Removed int
	Kept    int
	Changes []model.Change
}

// Count returns the number of removed entries.
func (r CleanupResult) Count() int { return r.Removed }

// Summary renders the one-line operator report.
func (r CleanupResult) Summary() string {
	return fmt.Sprintf("cleanup: removed %d placeholder DNA entries, kept %d", r.Removed, r.Kept)
}

// Cleanup returns a copy of ds without placeholder DNA entries: blank names
// and names equal to or prefixed by label. Skills are not touched.
func Cleanup(ds *model.Dataset, label string) (*model.Dataset, CleanupResult) {
	if label == "" {
		label = DefaultPlaceholder
	}
	out := ds.Clone()
	if out == nil {
		out = &model.Dataset{}
	}

	res := CleanupResult{Specs: make(map[string]SpecCleanup, len(out.DNA))}
	for _, sid := range sortedKeys(out.DNA) {
		entries := out.DNA[sid]
		kept := make([]model.DnaEntry, 0, len(entries))
		var sc SpecCleanup
		for _, e := range entries {
			if resolve.IsPlaceholder(e.Name, label) {
				sc.Removed++
				res.Changes = append(res.Changes, model.Change{
					Kind:     model.EntityDNA,
					ParentID: sid,
					EntityID: e.ID,
					Field:    "entry",
					Old:      encode(e.Name),
					Method:   MethodCleanup,
				})
				continue
			}
			sc.Kept++
			kept = append(kept, e)
		}
		if sc.Removed > 0 {
			out.DNA[sid] = kept
			zap.L().Debug("cleanup: spec",
				zap.String("spec", sid),
				zap.Int("removed", sc.Removed),
				zap.Int("kept", sc.Kept),
			)
		}
		res.Specs[sid] = sc
		res.Removed += sc.Removed
		res.Kept += sc.Kept
	}
	return out, res
}
