package cart

import (
	"testing"
	"time"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, ts time.Time) *time.Time {
	t.Helper()
	current := ts
	prev := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = prev })
	return &current
}

func newGuestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New("cart-1", Owner{SessionID: "S1"})
	require.NoError(t, err)
	return c
}

func item(productID string, qty int, price int64, variant Variant) Item {
	return Item{
		ProductID:        productID,
		Name:             "Product " + productID,
		ImageURL:         "https://img.example.com/" + productID + ".png",
		Quantity:         qty,
		PriceAtAddToCart: decimal.NewFromInt(price),
		Variant:          variant,
	}
}

// ============================================
// Construction Tests
// ============================================

func TestNew_Defaults(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	freezeClock(t, ts)

	c, err := New("cart-1", Owner{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, "cart-1", c.ID)
	assert.Equal(t, "user-1", c.UserID)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalAmount.IsZero())
	assert.Equal(t, StatusActive, c.Status)
	assert.Nil(t, c.AppliedCoupon)
	assert.Equal(t, ts, c.CreatedAt)
	assert.Equal(t, ts, c.UpdatedAt)
}

func TestNew_GuestCart(t *testing.T) {
	c, err := New("cart-1", Owner{SessionID: "sess-9"})

	require.NoError(t, err)
	assert.Equal(t, "sess-9", c.SessionID)
	assert.Empty(t, c.UserID)
}

func TestNew_MissingOwner(t *testing.T) {
	c, err := New("cart-1", Owner{})

	assert.ErrorIs(t, err, ErrInvalidOwner)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Nil(t, c)
}

func TestOwner_Key(t *testing.T) {
	tests := []struct {
		name     string
		owner    Owner
		expected string
	}{
		{"user only", Owner{UserID: "u1"}, "user:u1"},
		{"session only", Owner{SessionID: "s1"}, "session:s1"},
		{"user wins over session", Owner{UserID: "u1", SessionID: "s1"}, "user:u1"},
		{"empty", Owner{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.owner.Key())
		})
	}
}

// ============================================
// AddItem Tests
// ============================================

func TestAddItem_NewLine(t *testing.T) {
	c := newGuestCart(t)

	c.AddItem(item("P1", 2, 10, nil))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "20", c.TotalAmount.String())
	assert.Nil(t, c.Items[0].Variant)
}

func TestAddItem_MergesSameKey_FirstPriceWins(t *testing.T) {
	c := newGuestCart(t)

	c.AddItem(item("P1", 2, 10, nil))
	c.AddItem(item("P1", 3, 99, nil))
	c.AddItem(item("P1", 1, 5, Variant{}))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 6, c.Items[0].Quantity)
	assert.Equal(t, "10", c.Items[0].PriceAtAddToCart.String())
	assert.Equal(t, "60", c.TotalAmount.String())
}

func TestAddItem_KeepsFirstDisplaySnapshot(t *testing.T) {
	c := newGuestCart(t)

	first := item("P1", 1, 10, nil)
	second := item("P1", 1, 10, nil)
	second.Name = "Renamed in catalog"

	c.AddItem(first)
	c.AddItem(second)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "Product P1", c.Items[0].Name)
}

func TestAddItem_VariantIsPartOfIdentity(t *testing.T) {
	c := newGuestCart(t)

	c.AddItem(item("P1", 1, 10, nil))
	c.AddItem(item("P1", 1, 10, Variant{"size": "M"}))
	c.AddItem(item("P1", 1, 10, Variant{"size": "L"}))

	assert.Len(t, c.Items, 3)
	assert.Equal(t, "30", c.TotalAmount.String())
}

func TestAddItem_VariantComparisonIgnoresOrder(t *testing.T) {
	c := newGuestCart(t)

	a := Variant{}
	a["color"] = "red"
	a["size"] = "M"
	b := Variant{}
	b["size"] = "M"
	b["color"] = "red"

	c.AddItem(item("P1", 1, 10, a))
	c.AddItem(item("P1", 2, 10, b))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItem_DoesNotAliasCallerVariant(t *testing.T) {
	c := newGuestCart(t)
	v := Variant{"size": "M"}

	c.AddItem(item("P1", 1, 10, v))
	v["size"] = "XL"

	assert.Equal(t, "M", c.Items[0].Variant["size"])
}

func TestAddItem_NumericAndNestedVariantsCompareDeeply(t *testing.T) {
	c := newGuestCart(t)

	// 42 as an int and as the float64 a JSON decoder produces encode alike.
	c.AddItem(item("P1", 1, 10, Variant{"size": 42, "fit": map[string]any{"waist": 32, "leg": "long"}}))
	c.AddItem(item("P1", 2, 10, Variant{"fit": map[string]any{"leg": "long", "waist": float64(32)}, "size": float64(42)}))
	c.AddItem(item("P1", 1, 10, Variant{"size": 42, "fit": map[string]any{"waist": 34, "leg": "long"}}))

	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)

	c.RemoveItem("P1", Variant{"fit": map[string]any{"waist": 34, "leg": "long"}, "size": 42})
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItem_DoesNotAliasNestedVariant(t *testing.T) {
	c := newGuestCart(t)
	fit := map[string]any{"waist": 32}
	tags := []any{"sale"}

	c.AddItem(item("P1", 1, 10, Variant{"fit": fit, "tags": tags}))
	fit["waist"] = 40
	tags[0] = "full-price"

	assert.Equal(t, 32, c.Items[0].Variant["fit"].(map[string]any)["waist"])
	assert.Equal(t, "sale", c.Items[0].Variant["tags"].([]any)[0])
}

func TestLineQuantity(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 3, 10, nil))
	c.AddItem(item("P1", 2, 10, Variant{"size": "M"}))

	assert.Equal(t, 3, c.LineQuantity("P1", nil))
	assert.Equal(t, 3, c.LineQuantity("P1", Variant{}))
	assert.Equal(t, 2, c.LineQuantity("P1", Variant{"size": "M"}))
	assert.Zero(t, c.LineQuantity("P1", Variant{"size": "L"}))
	assert.Zero(t, c.LineQuantity("P2", nil))
}

func TestAddItem_RefreshesUpdatedAt(t *testing.T) {
	clock := freezeClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newGuestCart(t)

	*clock = clock.Add(time.Minute)
	c.AddItem(item("P1", 1, 10, nil))

	assert.Equal(t, *clock, c.UpdatedAt)
	assert.True(t, c.UpdatedAt.After(c.CreatedAt))
}

func TestAddItem_SumOfQuantitiesTimesFirstPrice(t *testing.T) {
	quantities := []int{1, 4, 2, 7, 3}
	c := newGuestCart(t)

	sum := 0
	for i, q := range quantities {
		c.AddItem(item("P1", q, int64(10+i), Variant{"size": "S"}))
		sum += q
	}

	require.Len(t, c.Items, 1)
	assert.Equal(t, sum, c.Items[0].Quantity)
	assert.Equal(t, decimal.NewFromInt(int64(sum*10)).String(), c.TotalAmount.String())
}

func TestAddItem_FractionalPricesAreExact(t *testing.T) {
	c := newGuestCart(t)

	c.AddItem(Item{ProductID: "P1", Quantity: 3, PriceAtAddToCart: decimal.RequireFromString("0.10")})
	c.AddItem(Item{ProductID: "P2", Quantity: 1, PriceAtAddToCart: decimal.RequireFromString("0.20")})

	assert.True(t, decimal.RequireFromString("0.5").Equal(c.TotalAmount))
}

// ============================================
// RemoveItem Tests
// ============================================

func TestRemoveItem_ExactKeyOnly(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))
	c.AddItem(item("P1", 1, 10, Variant{"size": "M"}))

	c.RemoveItem("P1", nil)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "M", c.Items[0].Variant["size"])
	assert.Equal(t, "10", c.TotalAmount.String())
}

func TestRemoveItem_WithVariant(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))
	c.AddItem(item("P1", 1, 10, Variant{"size": "M", "color": "red"}))

	c.RemoveItem("P1", Variant{"color": "red", "size": "M"})

	require.Len(t, c.Items, 1)
	assert.Nil(t, c.Items[0].Variant)
	assert.Equal(t, "20", c.TotalAmount.String())
}

func TestRemoveItem_NoMatchIsNoop(t *testing.T) {
	clock := freezeClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))
	before := c.UpdatedAt

	*clock = clock.Add(time.Hour)
	c.RemoveItem("P2", nil)
	c.RemoveItem("P1", Variant{"size": "M"})

	assert.Len(t, c.Items, 1)
	assert.Equal(t, before, c.UpdatedAt)
	assert.Equal(t, "20", c.TotalAmount.String())
}

func TestRemoveThenAdd_ResetsPriceSnapshot(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))

	c.RemoveItem("P1", nil)
	c.AddItem(item("P1", 1, 15, nil))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "15", c.Items[0].PriceAtAddToCart.String())
	assert.Equal(t, "15", c.TotalAmount.String())
}

// ============================================
// Total / Clear Tests
// ============================================

func TestRecalculateTotal_Idempotent(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))
	c.AddItem(item("P2", 3, 7, nil))

	c.RecalculateTotal()
	first := c.TotalAmount
	c.RecalculateTotal()

	assert.True(t, first.Equal(c.TotalAmount))
	assert.Equal(t, "41", c.TotalAmount.String())
}

func TestRecalculateTotal_FixesStaleTotal(t *testing.T) {
	c := newGuestCart(t)
	c.Items = []Item{item("P1", 2, 10, nil)}
	c.TotalAmount = decimal.NewFromInt(999)

	c.RecalculateTotal()

	assert.Equal(t, "20", c.TotalAmount.String())
}

func TestClear(t *testing.T) {
	clock := freezeClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newGuestCart(t)
	c.AddItem(item("P1", 2, 10, nil))

	*clock = clock.Add(time.Minute)
	c.Clear()

	assert.Empty(t, c.Items)
	assert.True(t, c.TotalAmount.IsZero())
	assert.Equal(t, *clock, c.UpdatedAt)
}

func TestClone_IsDeep(t *testing.T) {
	c := newGuestCart(t)
	c.AddItem(item("P1", 1, 10, Variant{"size": "M"}))
	c.AppliedCoupon = &AppliedCoupon{CouponCode: "SAVE10", DiscountAmount: decimal.NewFromInt(1)}

	clone := c.Clone()
	clone.Items[0].Quantity = 50
	clone.Items[0].Variant["size"] = "XL"
	clone.AppliedCoupon.CouponCode = "OTHER"

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "M", c.Items[0].Variant["size"])
	assert.Equal(t, "SAVE10", c.AppliedCoupon.CouponCode)
}

// ============================================
// Guest Session Scenario
// ============================================

func TestGuestSessionScenario(t *testing.T) {
	c := newGuestCart(t)

	c.AddItem(item("P1", 2, 10, nil))
	assert.Equal(t, "20", c.TotalAmount.String())

	c.AddItem(item("P1", 1, 10, nil))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "30", c.TotalAmount.String())

	c.AddItem(item("P1", 1, 10, Variant{"size": "M"}))
	assert.Len(t, c.Items, 2)
	assert.Equal(t, "40", c.TotalAmount.String())
}
