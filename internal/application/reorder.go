package application

import "fmt"

// ReorderIDs returns a new list with movedID placed at targetIndex and the
// relative order of the remaining IDs preserved. Pure: the input is not
// mutated and persistence is the caller's concern.
func ReorderIDs(ids []string, movedID string, targetIndex int) ([]string, error) {
	if targetIndex < 0 || targetIndex >= len(ids) {
		return nil, fmt.Errorf("reorder target %d out of range [0,%d)", targetIndex, len(ids))
	}

	found := false
	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == movedID {
			found = true
			continue
		}
		remaining = append(remaining, id)
	}
	if !found {
		return nil, fmt.Errorf("id %s not in list", movedID)
	}

	result := make([]string, 0, len(ids))
	result = append(result, remaining[:targetIndex]...)
	result = append(result, movedID)
	result = append(result, remaining[targetIndex:]...)
	return result, nil
}
