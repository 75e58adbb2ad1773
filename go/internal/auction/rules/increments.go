package rules

import "github.com/bwpl/auctioneer/go/internal/models"

// ResolveIncrement returns the quick-bid increment for the current bid. Rules
// are evaluated in order and the first rule whose ceiling exceeds the bid
// wins; a nil ceiling is unbounded and therefore always matches. When no rule
// matches the last rule's increment is the catch-all.
//
// The evaluator does not enforce that rules are sorted ascending by ceiling;
// callers that want monotonic increments must keep the table ordered.
func ResolveIncrement(bid int64, table []models.AutoIncrementRule) int64 {
	if len(table) == 0 {
		return 0
	}
	for _, r := range table {
		if r.UpTo == nil || bid < *r.UpTo {
			return r.Increment
		}
	}
	return table[len(table)-1].Increment
}
