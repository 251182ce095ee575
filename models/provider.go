package models

import (
	"time"
)

// Provider is a practitioner that can be matched to bookings. The assignment
// engine only reads the availability, verification and gender attributes.
type Provider struct {
	ID          string    `bson:"id" json:"id"`
	FullName    string    `bson:"fullName" json:"fullName"`
	Gender      string    `bson:"gender" json:"gender,omitempty"`
	Email       string    `bson:"email" json:"email,omitempty"`
	PhoneNumber string    `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	City        string    `bson:"city" json:"city,omitempty"`
	Status      string    `bson:"status" json:"status,omitempty"` // pending_review, approved, rejected
	IsAvailable bool      `bson:"isAvailable" json:"isAvailable"`
	IsVerified  bool      `bson:"isVerified" json:"isVerified"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// ProviderDTO is the public projection sent to clients.
type ProviderDTO struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Gender   string `json:"gender,omitempty"`
}

func (p Provider) DTO() ProviderDTO {
	return ProviderDTO{ID: p.ID, FullName: p.FullName, Gender: p.Gender}
}

// CandidateFilter narrows a provider directory query for matching.
type CandidateFilter struct {
	Gender  string
	Exclude []string
	Limit   int
}
