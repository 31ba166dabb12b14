package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// CalculateRequirements aggregates the BOM demand of every item on a production order per
// material, nets it against raw-materials stock and lists the suppliers that have sold each
// material, cheapest first. It reads only.
func (e *Engine) CalculateRequirements(ctx context.Context, productionOrderID int) ([]MaterialRequirement, error) {
	var out []MaterialRequirement
	err := e.read(ctx, "calculate_requirements", func(tx Tx) error {
		po, err := tx.GetProductionOrder(ctx, productionOrderID)
		if err != nil {
			return err
		}
		demand, err := aggregateDemand(ctx, tx, po)
		if err != nil {
			return err
		}
		out, err = e.requirementsTx(ctx, tx, demand)
		return err
	})
	return out, err
}

// aggregateDemand sums item.quantity × line.quantity per material across the order. Materials with
// no positive demand are left out.
func aggregateDemand(ctx context.Context, tx Tx, po *ProductionOrder) (map[int]decimal.Decimal, error) {
	demand := make(map[int]decimal.Decimal)
	for _, it := range po.Items {
		if _, err := tx.GetVariant(ctx, it.VariantID); err != nil {
			return nil, err
		}
		lines, err := tx.ListBOMLines(ctx, it.VariantID)
		if err != nil {
			return nil, fmt.Errorf("list bom lines for variant %d: %w", it.VariantID, err)
		}
		for _, l := range lines {
			demand[l.MaterialID] = demand[l.MaterialID].Add(it.Quantity.Mul(l.Quantity))
		}
	}
	for id, q := range demand {
		if !q.IsPositive() {
			delete(demand, id)
		}
	}
	return demand, nil
}

func (e *Engine) requirementsTx(ctx context.Context, tx Tx, demand map[int]decimal.Decimal) ([]MaterialRequirement, error) {
	ids := make([]int, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	mats, err := tx.ListMaterials(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	if len(mats) != len(ids) {
		found := make(map[int]bool, len(mats))
		for _, m := range mats {
			found[m.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, notFound("material", id)
			}
		}
	}

	out := make([]MaterialRequirement, 0, len(mats))
	for _, m := range mats {
		available, err := tx.SumStock(ctx, ItemMaterial, m.ID, WarehouseRawMaterials)
		if err != nil {
			return nil, fmt.Errorf("sum stock for material %d: %w", m.ID, err)
		}
		history, err := tx.ListSupplierMaterials(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list suppliers for material %d: %w", m.ID, err)
		}
		req := demand[m.ID]
		shortage := req.Sub(available)
		if shortage.IsNegative() {
			shortage = decimal.Zero
		}
		out = append(out, MaterialRequirement{
			MaterialID:         m.ID,
			MaterialCode:       m.Code,
			MaterialName:       m.Name,
			Unit:               m.Unit,
			Required:           req,
			Available:          available,
			Shortage:           shortage,
			CandidateSuppliers: RankSuppliers(history),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MaterialCode != out[j].MaterialCode {
			return out[i].MaterialCode < out[j].MaterialCode
		}
		return out[i].MaterialID < out[j].MaterialID
	})
	return out, nil
}

// RankSuppliers orders price history by ascending last purchase price, most recent purchase first
// on ties, and flags the first entry as cheapest. It never returns nil.
func RankSuppliers(history []SupplierMaterial) []SupplierCandidate {
	out := make([]SupplierCandidate, 0, len(history))
	for _, h := range history {
		out = append(out, SupplierCandidate{
			SupplierID:        h.SupplierID,
			SupplierName:      h.SupplierName,
			LastPurchasePrice: h.LastPurchasePrice,
			LastPurchaseDate:  h.LastPurchaseDate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].LastPurchasePrice.Cmp(out[j].LastPurchasePrice); c != 0 {
			return c < 0
		}
		if !out[i].LastPurchaseDate.Equal(out[j].LastPurchaseDate) {
			return out[i].LastPurchaseDate.After(out[j].LastPurchaseDate)
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	if len(out) > 0 {
		out[0].IsCheapest = true
	}
	return out
}
