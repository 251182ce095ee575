package assignment

import "voctnow/models"

// SelectCandidate returns the first candidate not in exclude. The directory
// order is preserved so the same pool always yields the same provider.
func SelectCandidate(candidates []models.Provider, exclude []string) (*models.Provider, bool) {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	for i := range candidates {
		if _, excluded := skip[candidates[i].ID]; excluded {
			continue
		}
		p := candidates[i]
		return &p, true
	}
	return nil, false
}
