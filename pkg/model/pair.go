package model

import "fmt"

// BranchPair names a merge to simulate: From is merged into To. From and To
// may be equal; such a pair compares as a no-op merge.
type BranchPair struct {
	From string `json:"from" mapstructure:"from" validate:"required"`
	To   string `json:"to" mapstructure:"to" validate:"required"`
}

func (p BranchPair) String() string {
	return fmt.Sprintf("%s -> %s", p.From, p.To)
}

// Reverse returns the pair merged in the opposite direction.
func (p BranchPair) Reverse() BranchPair {
	return BranchPair{From: p.To, To: p.From}
}
