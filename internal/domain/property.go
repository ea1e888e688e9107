package domain

import "time"

// Property owns rooms and tenancies. The tenancy core reads it only to
// check that the acting user is the landlord.
type Property struct {
	ID         int64
	LandlordID string
	Name       string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
