package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics tracks confirmed bookings and coupon redemptions.
type BookingMetrics struct {
	bookings    *prometheus.CounterVec
	redemptions *prometheus.CounterVec
	grandTotal  *prometheus.CounterVec
}

// NewBookingMetrics registers the booking metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Confirmed bookings.",
	}, []string{"category"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupon redemptions attached to confirmed bookings.",
	}, []string{"category"})
	grandTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_grand_total_units",
		Help: "Sum of booking grand totals in smallest currency units.",
	}, []string{"category"})
	reg.MustRegister(bookings, redemptions, grandTotal)
	return &BookingMetrics{
		bookings:    bookings,
		redemptions: redemptions,
		grandTotal:  grandTotal,
	}
}

// ObserveBooking records one confirmed booking.
func (m *BookingMetrics) ObserveBooking(category string, grandTotal int64, couponUsed bool) {
	if m == nil {
		return
	}
	label := normalizeLabel(category)
	if m.bookings != nil {
		m.bookings.WithLabelValues(label).Inc()
	}
	if m.grandTotal != nil && grandTotal > 0 {
		m.grandTotal.WithLabelValues(label).Add(float64(grandTotal))
	}
	if couponUsed && m.redemptions != nil {
		m.redemptions.WithLabelValues(label).Inc()
	}
}
