package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Theater struct {
	ID           string
	Name         string
	Location     string
	City         string
	TotalScreens int
	Amenities    []string
}

func (t Theater) HasAmenity(name string) bool {
	for _, a := range t.Amenities {
		if a == name {
			return true
		}
	}

	return false
}

// Showtime is a single screening. ShowTime is the time of day in 24h "15:04"
// form and ShowDate the calendar day it belongs to.
type Showtime struct {
	ID             string
	MovieID        int
	TheaterID      string
	ShowTime       string
	ShowDate       time.Time
	ScreenNumber   int
	AvailableSeats int
	PriceModifier  decimal.Decimal
}

type TheaterShowtimes struct {
	Theater   Theater
	Showtimes []Showtime
}
