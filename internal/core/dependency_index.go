package core

import "sort"

// CostDependencyIndex maps a material to the variants whose BOM references it. A variant is listed
// once per material no matter how many lines it has on it.
type CostDependencyIndex struct {
	lines map[int]map[int]int // material -> variant -> line count
}

// NewCostDependencyIndex returns an empty index.
func NewCostDependencyIndex() *CostDependencyIndex {
	return &CostDependencyIndex{lines: make(map[int]map[int]int)}
}

// Add records one BOM line of variantID on materialID.
func (x *CostDependencyIndex) Add(materialID, variantID int) {
	vs, ok := x.lines[materialID]
	if !ok {
		vs = make(map[int]int)
		x.lines[materialID] = vs
	}
	vs[variantID]++
}

// Remove forgets one BOM line of variantID on materialID.
func (x *CostDependencyIndex) Remove(materialID, variantID int) {
	vs, ok := x.lines[materialID]
	if !ok {
		return
	}
	if vs[variantID] <= 1 {
		delete(vs, variantID)
	} else {
		vs[variantID]--
	}
	if len(vs) == 0 {
		delete(x.lines, materialID)
	}
}

// Dependents returns the variants that reference materialID, ascending.
func (x *CostDependencyIndex) Dependents(materialID int) []int {
	vs := x.lines[materialID]
	out := make([]int, 0, len(vs))
	for id := range vs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy.
func (x *CostDependencyIndex) Clone() *CostDependencyIndex {
	c := NewCostDependencyIndex()
	for mid, vs := range x.lines {
		cp := make(map[int]int, len(vs))
		for vid, n := range vs {
			cp[vid] = n
		}
		c.lines[mid] = cp
	}
	return c
}
