package services

import (
	"testing"
	"time"

	domain "github.com/koderius/ScaleSense-sub000/internal/domain"
)

func baselineOrderData() domain.OrderData {
	return domain.OrderData{
		Products: []domain.ProductLine{
			{ProductID: "p1", Name: "Tomatoes", Type: "vegetable", Amount: 2, UnitPrice: 10},
			{ProductID: "p2", Name: "Olive Oil", Type: "pantry", Amount: 1, UnitPrice: 40, Comment: "cold pressed"},
		},
		SupplyTime: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC),
		Comment:    "deliver to the back entrance",
	}
}

func TestDetectChangesSelfDiffIsEmpty(t *testing.T) {
	data := baselineOrderData()
	cs := DetectChanges(data, data)
	if cs.HasChanges {
		t.Fatalf("diff of identical snapshots must be empty, got %+v", cs)
	}
	if len(cs.Products) != 0 || cs.SupplyTime != nil || cs.Comment != nil || cs.SupplierComment != nil || cs.TotalPrice != nil {
		t.Fatalf("no sub-diffs expected, got %+v", cs)
	}
}

func TestDetectChangesProductUnion(t *testing.T) {
	old := baselineOrderData()
	updated := old
	updated.Products = []domain.ProductLine{
		{ProductID: "p1", Name: "Tomatoes", Type: "vegetable", Amount: 3, UnitPrice: 10},
		{ProductID: "p3", Name: "Basil", Type: "herb", Amount: 5, UnitPrice: 2},
	}

	cs := DetectChanges(old, updated)
	if !cs.HasChanges {
		t.Fatal("expected changes")
	}
	if len(cs.Products) != 3 {
		t.Fatalf("expected changed, removed, and added entries, got %d: %+v", len(cs.Products), cs.Products)
	}

	// Discovery order: old snapshot order first, then new-only ids.
	if cs.Products[0].ProductID != "p1" || cs.Products[0].Kind != domain.ProductChanged {
		t.Fatalf("first entry should be changed p1, got %+v", cs.Products[0])
	}
	if cs.Products[1].ProductID != "p2" || cs.Products[1].Kind != domain.ProductRemoved {
		t.Fatalf("second entry should be removed p2, got %+v", cs.Products[1])
	}
	if cs.Products[2].ProductID != "p3" || cs.Products[2].Kind != domain.ProductAdded {
		t.Fatalf("third entry should be added p3, got %+v", cs.Products[2])
	}

	if cs.Products[0].Amount == nil || cs.Products[0].Amount.From != 2 || cs.Products[0].Amount.To != 3 {
		t.Fatalf("p1 amount diff wrong: %+v", cs.Products[0].Amount)
	}
	if cs.Products[0].Price != nil {
		t.Fatalf("p1 price unchanged, diff should be nil: %+v", cs.Products[0].Price)
	}
	if cs.Products[1].Amount != nil || cs.Products[1].Price != nil || cs.Products[1].Comment != nil {
		t.Fatalf("removed entries carry no sub-diffs: %+v", cs.Products[1])
	}
	if cs.Products[2].Amount == nil || cs.Products[2].Amount.From != 0 || cs.Products[2].Amount.To != 5 {
		t.Fatalf("added entries record amount from zero: %+v", cs.Products[2].Amount)
	}
}

func TestDetectChangesTotalPriceDelta(t *testing.T) {
	old := baselineOrderData()
	updated := old
	updated.Products = []domain.ProductLine{
		{ProductID: "p1", Name: "Tomatoes", Type: "vegetable", Amount: 3, UnitPrice: 10},
		{ProductID: "p2", Name: "Olive Oil", Type: "pantry", Amount: 1, UnitPrice: 40, Comment: "cold pressed"},
	}

	cs := DetectChanges(old, updated)
	if cs.TotalPrice == nil {
		t.Fatal("total price delta expected when product sums diverge")
	}
	if cs.TotalPrice.From != 60 || cs.TotalPrice.To != 70 {
		t.Fatalf("total price diff = %+v, want 60 -> 70", cs.TotalPrice)
	}
}

func TestDetectChangesNoTotalPriceWithoutProductDiff(t *testing.T) {
	old := baselineOrderData()
	updated := old
	updated.Comment = "leave at the gate"

	cs := DetectChanges(old, updated)
	if cs.TotalPrice != nil {
		t.Fatalf("no product diff, total price must stay nil: %+v", cs.TotalPrice)
	}
	if cs.Comment == nil || cs.Comment.Kind != domain.FieldSet {
		t.Fatalf("comment diff = %+v, want set", cs.Comment)
	}
}

func TestDetectChangesClearedField(t *testing.T) {
	old := baselineOrderData()
	updated := old
	updated.Comment = ""

	cs := DetectChanges(old, updated)
	if cs.Comment == nil {
		t.Fatal("cleared comment must produce a diff")
	}
	if cs.Comment.Kind != domain.FieldCleared {
		t.Fatalf("kind = %s, want cleared", cs.Comment.Kind)
	}
	if cs.Comment.From != "deliver to the back entrance" || cs.Comment.To != "" {
		t.Fatalf("cleared diff = %+v", cs.Comment)
	}
}

func TestDetectChangesSupplyTime(t *testing.T) {
	old := baselineOrderData()
	updated := old
	updated.SupplyTime = old.SupplyTime.Add(48 * time.Hour)

	cs := DetectChanges(old, updated)
	if cs.SupplyTime == nil {
		t.Fatal("supply time diff expected")
	}
	if !cs.SupplyTime.From.Equal(old.SupplyTime) || !cs.SupplyTime.To.Equal(updated.SupplyTime) {
		t.Fatalf("supply time diff = %+v", cs.SupplyTime)
	}
}

func TestDetectChangesAgainstZeroSnapshot(t *testing.T) {
	updated := baselineOrderData()
	cs := DetectChanges(domain.OrderData{}, updated)
	if !cs.HasChanges {
		t.Fatal("new order snapshot must register as changed")
	}
	for _, pc := range cs.Products {
		if pc.Kind != domain.ProductAdded {
			t.Fatalf("all products should be added on a zero base, got %+v", pc)
		}
	}
	if cs.SupplyTime == nil || cs.Comment == nil {
		t.Fatalf("scalar fields should diff against the zero snapshot: %+v", cs)
	}
}
