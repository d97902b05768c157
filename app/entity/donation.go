package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DonationStatusPending   = "pending"
	DonationStatusApproved  = "approved"
	DonationStatusCancelled = "cancelled"
)

// OpenDonationStatuses are the gateway statuses that can still change.
// Rejected, cancelled, refunded and charged back payments are final.
var OpenDonationStatuses = []string{
	DonationStatusPending,
	"in_process",
	"authorized",
	"in_mediation",
}

type Donation struct {
	ID        string
	PaymentID string

	Name    string
	Email   string
	Phone   *string
	SteamID *string

	// Amount is what the gateway charged, after discount and markup.
	Amount      decimal.Decimal
	Description *string
	Status      string

	DiscountCoupon *string

	QRCode       *string
	QRCodeBase64 *string
	TicketURL    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
