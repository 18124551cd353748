package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/ticpin-app/ticpin-backend/pkg/db/models"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/pubsub"
)

// BookingConfirmedEvent is the payload published after a booking commits.
type BookingConfirmedEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	Reference   string    `json:"reference"`
	Category    string    `json:"category"`
	ListingID   string    `json:"listing_id"`
	ListingName string    `json:"listing_name"`
	UserEmail   string    `json:"user_email"`
	GrandTotal  int64     `json:"grand_total"`
	BookedAt    time.Time `json:"booked_at"`
}

// Publisher emits booking lifecycle events to Pub/Sub. A nil Publisher is a
// disabled one; every method is safe to call on it.
type Publisher struct {
	publisher *gcppubsub.Publisher
	logg      *logger.Logger
}

// NewPublisher builds a booking event publisher on the shared Pub/Sub client.
func NewPublisher(client *pubsub.Client, logg *logger.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	pub := client.BookingsPublisher()
	if pub == nil {
		return nil, fmt.Errorf("bookings topic not configured")
	}
	return &Publisher{publisher: pub, logg: logg}, nil
}

// PublishBookingConfirmed publishes the confirmed event and waits for the
// server ack. Callers treat failures as best-effort.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, booking *models.Booking) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	event := BookingConfirmedEvent{
		Type:        "booking.confirmed",
		BookingID:   booking.ID.String(),
		Reference:   booking.Reference(),
		Category:    booking.Category.String(),
		ListingID:   booking.ListingID.String(),
		ListingName: booking.ListingName,
		UserEmail:   booking.UserEmail,
		GrandTotal:  booking.GrandTotal,
		BookedAt:    booking.BookedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}

	result := p.publisher.Publish(ctx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     event.Type,
			"category": event.Category,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish booking event: %w", err)
	}

	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "booking_id", event.BookingID), "published booking.confirmed")
	}
	return nil
}
