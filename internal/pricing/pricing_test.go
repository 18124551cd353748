package pricing

import (
	"testing"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

func TestOrderAmountSumsLines(t *testing.T) {
	items := []types.TicketLine{
		{Name: "General", UnitPrice: 500, Quantity: 2},
		{Name: "VIP", UnitPrice: 1200, Quantity: 1},
	}
	if got := OrderAmount(items); got != 2200 {
		t.Fatalf("expected 2200, got %d", got)
	}
}

func TestOrderAmountIgnoresDegenerateLines(t *testing.T) {
	items := []types.TicketLine{
		{Name: "General", UnitPrice: 500, Quantity: 0},
		{Name: "Broken", UnitPrice: -10, Quantity: 3},
		{Name: "VIP", UnitPrice: 100, Quantity: 1},
	}
	if got := OrderAmount(items); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestBookingFeeRounding(t *testing.T) {
	cases := []struct {
		name    string
		amount  int64
		percent int
		want    int64
	}{
		{"exact", 1000, 10, 100},
		{"half rounds up", 15, 10, 2},
		{"below half rounds down", 14, 10, 1},
		{"tiny half away from zero", 5, 10, 1},
		{"zero amount", 0, 10, 0},
		{"zero percent", 1000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BookingFee(tc.amount, tc.percent); got != tc.want {
				t.Fatalf("BookingFee(%d, %d) = %d, want %d", tc.amount, tc.percent, got, tc.want)
			}
		})
	}
}

func TestDiscountPercentRounds(t *testing.T) {
	if got := Discount(enums.DiscountTypePercent, 10, 1000); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	// 333 * 15% = 49.95, rounds to 50
	if got := Discount(enums.DiscountTypePercent, 15, 333); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestDiscountFlatClampsAtAmount(t *testing.T) {
	if got := Discount(enums.DiscountTypeFlat, 150, 1000); got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
	if got := Discount(enums.DiscountTypeFlat, 5000, 1000); got != 1000 {
		t.Fatalf("expected clamp to 1000, got %d", got)
	}
}

func TestDiscountUnknownTypeIsZero(t *testing.T) {
	if got := Discount(enums.DiscountType("bogus"), 10, 1000); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestGrandTotalFloorsAtZero(t *testing.T) {
	if got := GrandTotal(100, 10, 500, 500); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
	if got := GrandTotal(1000, 100, 100, 150); got != 850 {
		t.Fatalf("expected 850, got %d", got)
	}
}

func TestComputeEmptyCartZerosEverything(t *testing.T) {
	quote := Compute(nil, DefaultFeePercent, 200, 300)
	if quote != (Quote{}) {
		t.Fatalf("expected zero quote, got %+v", quote)
	}
}

func TestComputeWorkedScenario(t *testing.T) {
	// Two tickets at 500: order 1000, fee 100, 10 percent offer discounts 100,
	// grand total back to 1000.
	items := []types.TicketLine{{Name: "General", UnitPrice: 500, Quantity: 2}}
	offer := Discount(enums.DiscountTypePercent, 10, OrderAmount(items))

	quote := Compute(items, DefaultFeePercent, offer, 0)
	if quote.OrderAmount != 1000 || quote.BookingFee != 100 || quote.OfferDiscount != 100 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if quote.GrandTotal != 1000 {
		t.Fatalf("expected grand total 1000, got %d", quote.GrandTotal)
	}

	// A flat 150 coupon stacks additively.
	quote = Compute(items, DefaultFeePercent, offer, 150)
	if quote.GrandTotal != 850 {
		t.Fatalf("expected grand total 850, got %d", quote.GrandTotal)
	}
}

func TestComputeReDerivesOfferAfterQuantityChange(t *testing.T) {
	items := []types.TicketLine{{Name: "General", UnitPrice: 500, Quantity: 5}}
	amount := OrderAmount(items)
	if amount != 2500 {
		t.Fatalf("expected order amount 2500, got %d", amount)
	}
	offer := Discount(enums.DiscountTypePercent, 10, amount)
	if offer != 250 {
		t.Fatalf("expected re-derived discount 250, got %d", offer)
	}

	quote := Compute(items, DefaultFeePercent, offer, 0)
	if quote.GrandTotal != 2500 {
		t.Fatalf("expected grand total 2500, got %d", quote.GrandTotal)
	}
}
