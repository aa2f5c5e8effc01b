package balance

import "fmt"

// EqualSplit divides totalCents into n shares that sum to totalCents
// exactly. Each share is the floored per-head amount; the first
// totalCents%n shares receive one extra minor unit, so no two shares
// differ by more than one unit and the rule is deterministic in the
// order participants were given. Splitting 20000 across 3 yields
// {6667, 6667, 6666}.
func EqualSplit(totalCents int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("must have at least one participant")
	}
	if totalCents < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	base := totalCents / int64(n)
	remainder := totalCents % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}
