// Package seatmap computes per-showtime seat occupancy and validates seat
// selections. Everything here is pure: the same showtime id always yields the
// same filled seats.
package seatmap

import (
	"fmt"
	"slices"
)

const (
	SeatsPerRow = 8

	minFilled   = 30
	filledRange = 20
)

type Set map[int]struct{}

func NewSet(seats ...int) Set {
	s := make(Set, len(seats))
	for _, seat := range seats {
		s[seat] = struct{}{}
	}

	return s
}

func (s Set) Has(seat int) bool {
	_, ok := s[seat]
	return ok
}

func (s Set) Sorted() []int {
	seats := make([]int, 0, len(s))
	for seat := range s {
		seats = append(seats, seat)
	}

	slices.Sort(seats)

	return seats
}

// Seed sums the character codes of the showtime id.
func Seed(showtimeID string) int {
	seed := 0
	for _, r := range showtimeID {
		seed += int(r)
	}

	return seed
}

// FilledCount is the number of seats a showtime reports as already sold,
// drawn from [30, 50).
func FilledCount(showtimeID string) int {
	return minFilled + Seed(showtimeID)%filledRange
}

// TotalCapacity is the size of the auditorium behind a showtime that still
// has availableSeats free.
func TotalCapacity(showtimeID string, availableSeats int) int {
	return availableSeats + FilledCount(showtimeID)
}

func ComputeFilledSeats(showtimeID string, totalCapacity int) Set {
	return computeFilledSeats(NewLCG(Seed(showtimeID)), FilledCount(showtimeID), totalCapacity)
}

func computeFilledSeats(src Source, count, totalCapacity int) Set {
	filled := make(Set)
	if totalCapacity < 1 {
		return filled
	}

	count = min(count, totalCapacity)

	for draws := 0; len(filled) < count && draws < lcgModulus; draws++ {
		seat := src.Intn(totalCapacity) + 1
		filled[seat] = struct{}{}
	}

	return filled
}

// FormatSeatLabel renders seat numbers as row letter and column, e.g. 9 -> "B1".
func FormatSeatLabel(seatNumber int) string {
	if seatNumber < 1 {
		return ""
	}

	row := (seatNumber - 1) / SeatsPerRow
	col := (seatNumber-1)%SeatsPerRow + 1

	return fmt.Sprintf("%s%d", rowLabel(row), col)
}

func rowLabel(row int) string {
	label := ""
	for row >= 0 {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
	}

	return label
}

func FormatSeatLabels(seats []int) []string {
	labels := make([]string, len(seats))
	for i, seat := range seats {
		labels[i] = FormatSeatLabel(seat)
	}

	return labels
}
