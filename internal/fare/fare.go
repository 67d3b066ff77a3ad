// Package fare holds the pure pricing rules of the transit card: single-ride
// fares, commuter pass prices and ticket code generation. No I/O happens here.
package fare

import (
	"math"      // Flooring pass prices
	"math/rand" // Random ticket code suffix
	"strconv"   // Base-36 encoding
	"strings"   // Uppercasing
	"time"      // Timestamps for ticket codes
)

// BaseFare is the minimum single-ride fare in yen.
const BaseFare = 200

// BasePassPrice is the monthly commuter pass base price in yen.
const BasePassPrice = 10000

// PassDuration is a commuter pass duration tier.
type PassDuration string

// Supported pass duration tiers
const (
	Duration1Month  PassDuration = "1month"  // 30 days
	Duration3Months PassDuration = "3months" // 90 days, 5% discount
	Duration6Months PassDuration = "6months" // 180 days, 10% discount
)

// Valid reports whether d is a known duration tier.
func (d PassDuration) Valid() bool {
	switch d {
	case Duration1Month, Duration3Months, Duration6Months:
		return true
	}
	return false
}

// Days returns the validity span of the tier in days.
func (d PassDuration) Days() int {
	switch d {
	case Duration3Months:
		return 90
	case Duration6Months:
		return 180
	default:
		return 30
	}
}

// Label returns the display label of the tier.
func (d PassDuration) Label() string {
	switch d {
	case Duration3Months:
		return "3 months"
	case Duration6Months:
		return "6 months"
	default:
		return "1 month"
	}
}

// multiplier returns the price coefficient of the tier.
// 3 months carries a 5% discount, 6 months a 10% discount.
func (d PassDuration) multiplier() float64 {
	switch d {
	case Duration3Months:
		return 2.85
	case Duration6Months:
		return 5.4
	default:
		return 1
	}
}

// CalculateFare returns the single-ride fare between two stations in yen.
// The fare is the base fare plus an increment derived from the rune values of
// the concatenated station names, so the same pair (in the same order) always
// prices identically. This is a stand-in for a real distance-based tariff.
func CalculateFare(startStation, endStation string) int {
	sum := 0
	for _, r := range startStation + endStation {
		sum += int(r) // Sum character codes of both names
	}
	return BaseFare + (sum%5)*50 // 0, 50, 100, 150 or 200 yen extra
}

// CalculatePassPrice returns the commuter pass price for the station pair and
// duration tier in yen. Station names are accepted for interface parity but a
// flat monthly rate is used regardless of the pair.
func CalculatePassPrice(startStation, endStation string, duration PassDuration) int {
	_ = startStation
	_ = endStation
	return int(math.Floor(BasePassPrice * duration.multiplier()))
}

const base36Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateTicketCode produces a human-readable ticket code of the form
// QR-<base36 timestamp>-<6 random base36 chars>. Uniqueness is probabilistic
// only; the qr_tickets table carries a unique index as the backstop.
func GenerateTicketCode() string {
	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36Chars[rand.Intn(len(base36Chars))] // Random base-36 character
	}
	return "QR-" + timestamp + "-" + string(suffix)
}
