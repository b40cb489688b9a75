package services

import (
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
)

// DetectChanges computes the structured diff between two order snapshots.
// Product entries preserve discovery order: products from the old snapshot
// first, in their list order, then products that only exist in the new one.
// The total price delta is recorded only when at least one product line
// differs and the sums actually diverge.
func DetectChanges(old, updated domain.OrderData) domain.ChangeSet {
	var cs domain.ChangeSet

	cs.Products = diffProducts(old.Products, updated.Products)
	cs.SupplyTime = diffTime(old.SupplyTime, updated.SupplyTime)
	cs.Comment = diffText(old.Comment, updated.Comment)
	cs.SupplierComment = diffText(old.SupplierComment, updated.SupplierComment)

	if len(cs.Products) > 0 {
		oldTotal, newTotal := old.TotalPrice(), updated.TotalPrice()
		if oldTotal != newTotal {
			cs.TotalPrice = &domain.ValueChange{From: oldTotal, To: newTotal}
		}
	}

	cs.HasChanges = len(cs.Products) > 0 ||
		cs.SupplyTime != nil ||
		cs.Comment != nil ||
		cs.SupplierComment != nil
	return cs
}

func diffProducts(old, updated []domain.ProductLine) []domain.ProductChange {
	newByID := make(map[string]domain.ProductLine, len(updated))
	for _, p := range updated {
		newByID[p.ProductID] = p
	}
	oldIDs := make(map[string]struct{}, len(old))

	var changes []domain.ProductChange
	for _, before := range old {
		oldIDs[before.ProductID] = struct{}{}
		after, exists := newByID[before.ProductID]
		if !exists {
			changes = append(changes, domain.ProductChange{
				ProductID: before.ProductID,
				Name:      before.Name,
				Type:      before.Type,
				Kind:      domain.ProductRemoved,
			})
			continue
		}
		if pc, changed := diffProductLine(before, after); changed {
			changes = append(changes, pc)
		}
	}
	for _, after := range updated {
		if _, existed := oldIDs[after.ProductID]; existed {
			continue
		}
		changes = append(changes, domain.ProductChange{
			ProductID: after.ProductID,
			Name:      after.Name,
			Type:      after.Type,
			Kind:      domain.ProductAdded,
			Amount:    &domain.ValueChange{From: 0, To: after.Amount},
		})
	}
	return changes
}

// diffProductLine compares a product present in both snapshots. Only the
// sub-fields that differ are populated.
func diffProductLine(before, after domain.ProductLine) (domain.ProductChange, bool) {
	pc := domain.ProductChange{
		ProductID: before.ProductID,
		Name:      after.Name,
		Type:      after.Type,
		Kind:      domain.ProductChanged,
	}
	if before.Amount != after.Amount {
		pc.Amount = &domain.ValueChange{From: before.Amount, To: after.Amount}
	}
	if before.UnitPrice != after.UnitPrice {
		pc.Price = &domain.ValueChange{From: before.UnitPrice, To: after.UnitPrice}
	}
	if before.Comment != after.Comment {
		pc.Comment = diffText(before.Comment, after.Comment)
	}
	changed := pc.Amount != nil || pc.Price != nil || pc.Comment != nil
	return pc, changed
}

func diffText(before, after string) *domain.FieldChange {
	if before == after {
		return nil
	}
	kind := domain.FieldSet
	if after == "" {
		kind = domain.FieldCleared
	}
	return &domain.FieldChange{Kind: kind, From: before, To: after}
}

func diffTime(before, after time.Time) *domain.TimeChange {
	if before.Equal(after) {
		return nil
	}
	return &domain.TimeChange{From: before, To: after}
}
