package index

// lowerBound returns the first i in [0, n) for which pred(i) holds, or n if
// there is none. pred must be false on a prefix of the range and true on the
// remaining suffix.
//
// The search keeps left on a failing index and right on a passing one, with
// -1 and n acting as virtual bounds, so neither is ever evaluated.
func lowerBound(n int64, pred func(i int64) (bool, error)) (int64, error) {
	left, right := int64(-1), n
	for right-left > 1 {
		mid := left + (right-left)/2
		ok, err := pred(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			right = mid
		} else {
			left = mid
		}
	}
	return right, nil
}

// firstAtOrAfter returns the index of the first position with Start >= start.
func firstAtOrAfter(positions []FeaturePosition, start int32) int {
	i, _ := lowerBound(int64(len(positions)), func(i int64) (bool, error) {
		return positions[i].Start >= start, nil
	})
	return int(i)
}
