package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/types"
)

// DefaultFeePercent is the platform surcharge applied to every order.
const DefaultFeePercent = 10

// Quote carries every derived checkout figure. It is always rebuilt from the
// line items, never patched incrementally.
type Quote struct {
	OrderAmount    int64 `json:"order_amount"`
	BookingFee     int64 `json:"booking_fee"`
	OfferDiscount  int64 `json:"offer_discount"`
	CouponDiscount int64 `json:"coupon_discount"`
	GrandTotal     int64 `json:"grand_total"`
}

// OrderAmount sums unit price times quantity across the line items.
func OrderAmount(items []types.TicketLine) int64 {
	var total int64
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPrice <= 0 {
			continue
		}
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// BookingFee computes the platform fee as a percentage of the order amount,
// rounded to the nearest unit with ties away from zero.
func BookingFee(amount int64, feePercent int) int64 {
	if amount <= 0 || feePercent <= 0 {
		return 0
	}
	return roundPercent(amount, int64(feePercent))
}

// Discount resolves a percent or flat discount against the order amount.
// Flat discounts never exceed the amount they apply to.
func Discount(discountType enums.DiscountType, value, amount int64) int64 {
	if value <= 0 || amount <= 0 {
		return 0
	}
	switch discountType {
	case enums.DiscountTypePercent:
		return roundPercent(amount, value)
	case enums.DiscountTypeFlat:
		if value > amount {
			return amount
		}
		return value
	default:
		return 0
	}
}

// GrandTotal combines the derived figures, flooring the result at zero.
func GrandTotal(amount, fee, offerDiscount, couponDiscount int64) int64 {
	total := amount + fee - offerDiscount - couponDiscount
	if total < 0 {
		return 0
	}
	return total
}

// Compute rebuilds the full quote from scratch. Discounts on an empty cart
// are zeroed rather than carried forward.
func Compute(items []types.TicketLine, feePercent int, offerDiscount, couponDiscount int64) Quote {
	amount := OrderAmount(items)
	if amount == 0 {
		return Quote{}
	}
	if offerDiscount < 0 {
		offerDiscount = 0
	}
	if couponDiscount < 0 {
		couponDiscount = 0
	}
	fee := BookingFee(amount, feePercent)
	return Quote{
		OrderAmount:    amount,
		BookingFee:     fee,
		OfferDiscount:  offerDiscount,
		CouponDiscount: couponDiscount,
		GrandTotal:     GrandTotal(amount, fee, offerDiscount, couponDiscount),
	}
}

// roundPercent is round(amount * percent / 100) with ties away from zero.
func roundPercent(amount, percent int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
