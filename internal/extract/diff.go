package extract

import "github.com/google/uuid"

// Diff compares a document's reference sets before and after an edit.
// added holds members of curr absent from prev; removed holds members of
// prev absent from curr. Pure function, no I/O; O(len(prev)+len(curr)).
func Diff(prev, curr map[uuid.UUID]struct{}) (added, removed []uuid.UUID) {
	for id := range curr {
		if _, ok := prev[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}
