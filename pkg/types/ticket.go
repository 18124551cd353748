package types

// TicketType describes a purchasable ticket tier on a listing.
// Capacity of zero means unlimited.
type TicketType struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Capacity  int    `json:"capacity"`
}

// TicketLine is one booked ticket tier with its quantity, snapshotted at
// booking time. UnitPrice is in the currency's smallest unit.
type TicketLine struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}
