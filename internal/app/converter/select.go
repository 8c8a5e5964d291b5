package converter

import (
	"call-transcriber/internal/app/model"
)

// SelectPending returns the items whose file name is not a known ledger key,
// keeping their enumeration order.
func SelectPending(items []model.WorkItem, knownKeys map[string]struct{}) []model.WorkItem {
	pending := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		if _, done := knownKeys[item.Name]; done {
			continue
		}
		pending = append(pending, item)
	}
	return pending
}
