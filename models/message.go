package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Outbound live message types.
const (
	MsgPhysioAssigned      = "physio_assigned"
	MsgPhysioConfirmed     = "physio_confirmed"
	MsgBookingOffer        = "booking_offer"
	MsgBookingCancelled    = "booking_cancelled"
	MsgNoProviderAvailable = "no_provider_available"
)

// Inbound live message types.
const (
	MsgBookingResponse = "booking_response"
)

// ErrUnknownMessage is returned by DecodeInbound for frames whose type is not
// part of the inbound protocol.
var ErrUnknownMessage = errors.New("unknown message type")

// PhysioAssigned tells the client which provider was matched.
type PhysioAssigned struct {
	Type       string `json:"type"`
	BookingID  string `json:"booking_id"`
	PhysioName string `json:"physio_name"`
}

// PhysioConfirmed tells the client the provider accepted.
type PhysioConfirmed struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
}

// BookingOffer tells a provider it has been offered a booking.
type BookingOffer struct {
	Type      string     `json:"type"`
	BookingID string     `json:"booking_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BookingCancelled is sent to both parties when a booking is cancelled.
type BookingCancelled struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
}

// NoProviderAvailable tells the client matching found nobody this round.
type NoProviderAvailable struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id"`
}

func NewPhysioAssigned(bookingID, name string) PhysioAssigned {
	return PhysioAssigned{Type: MsgPhysioAssigned, BookingID: bookingID, PhysioName: name}
}

func NewPhysioConfirmed(bookingID string) PhysioConfirmed {
	return PhysioConfirmed{Type: MsgPhysioConfirmed, BookingID: bookingID}
}

func NewBookingOffer(bookingID string, expiresAt *time.Time) BookingOffer {
	return BookingOffer{Type: MsgBookingOffer, BookingID: bookingID, ExpiresAt: expiresAt}
}

func NewBookingCancelled(bookingID string) BookingCancelled {
	return BookingCancelled{Type: MsgBookingCancelled, BookingID: bookingID}
}

func NewNoProviderAvailable(bookingID string) NoProviderAvailable {
	return NoProviderAvailable{Type: MsgNoProviderAvailable, BookingID: bookingID}
}

// InboundMessage is the closed set of frames a provider may send.
type InboundMessage interface {
	inbound()
}

// BookingResponse is a provider's accept/decline answer to an offer.
type BookingResponse struct {
	BookingID string `json:"booking_id"`
	Accepted  bool   `json:"accepted"`
}

func (BookingResponse) inbound() {}

// DecodeInbound parses a raw provider frame into its concrete variant.
func DecodeInbound(raw []byte) (InboundMessage, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch envelope.Type {
	case MsgBookingResponse:
		var msg struct {
			BookingID string `json:"booking_id"`
			Accepted  *bool  `json:"accepted"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		if msg.BookingID == "" || msg.Accepted == nil {
			return nil, fmt.Errorf("decode %s: booking_id and accepted are required", envelope.Type)
		}
		return BookingResponse{BookingID: msg.BookingID, Accepted: *msg.Accepted}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, envelope.Type)
	}
}
