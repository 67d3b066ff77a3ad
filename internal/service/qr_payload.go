package service

import (
	"encoding/json" // JSON encoding of the payload
	"fmt"           // Error wrapping
	"time"          // RFC3339 timestamps

	"transit_card/internal/domain" // Importing domain models
)

// qrPayload is the record embedded in the rendered QR code. The key names and
// value types are fixed: gate scanners parse exactly this shape.
type qrPayload struct {
	Code   string `json:"code"`   // Ticket code
	From   string `json:"from"`   // Departure station
	To     string `json:"to"`     // Arrival station
	Fare   int    `json:"fare"`   // Fare in yen
	Expiry string `json:"expiry"` // Expiry timestamp, RFC3339
	Issued string `json:"issued"` // Issue timestamp, RFC3339
}

// QRCodeData returns the string payload an external renderer encodes into the
// displayed QR image.
func QRCodeData(ticket *domain.QRTicket) (string, error) {
	payload := qrPayload{
		Code:   ticket.TicketCode,
		From:   ticket.StartStation,
		To:     ticket.EndStation,
		Fare:   ticket.Fare,
		Expiry: ticket.ExpiryDate.Format(time.RFC3339),
		Issued: ticket.IssueDate.Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	return string(data), nil
}
