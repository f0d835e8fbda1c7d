package availability

import "sort"

// SlotStarts tiles each window with duration-aligned candidate start
// times, in minutes from midnight. Tiling begins at the window start
// and a candidate is kept only when the full duration fits before the
// window end. Overlapping windows can tile onto the same start, so the
// result is deduplicated and sorted ascending.
func SlotStarts(windows []Window, durationMin int) []int {
	if durationMin <= 0 {
		return nil
	}

	seen := make(map[int]struct{})
	var starts []int
	for _, w := range windows {
		for cursor := w.StartMin; cursor+durationMin <= w.EndMin; cursor += durationMin {
			if _, ok := seen[cursor]; ok {
				continue
			}
			seen[cursor] = struct{}{}
			starts = append(starts, cursor)
		}
	}

	sort.Ints(starts)
	return starts
}
