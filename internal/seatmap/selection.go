package seatmap

import "slices"

// Selection holds the chosen seat numbers in the order they were picked.
type Selection []int

func (s Selection) Contains(seat int) bool {
	return slices.Contains(s, seat)
}

func (s Selection) Sorted() []int {
	seats := slices.Clone(s)
	slices.Sort(seats)

	return seats
}

// Remaining is how many more seats are needed to reach required.
func (s Selection) Remaining(required int) int {
	return max(required-len(s), 0)
}

// IsComplete reports whether exactly required seats are selected.
func IsComplete(selection Selection, required int) bool {
	return len(selection) == required
}

// Select toggles seat in the selection. Unavailable seats and additions past
// required leave the selection unchanged. The input is never mutated.
func Select(selection Selection, seat, required int, available func(int) bool) Selection {
	if idx := slices.Index(selection, seat); idx >= 0 {
		return slices.Delete(slices.Clone(selection), idx, idx+1)
	}

	if !available(seat) {
		return selection
	}

	if len(selection) >= required {
		return selection
	}

	next := make(Selection, len(selection), len(selection)+1)
	copy(next, selection)

	return append(next, seat)
}

// SeatMap is the derived occupancy of one showtime: seats sold according to
// the deterministic filled set plus seats held by live bookings.
type SeatMap struct {
	ShowtimeID string
	Total      int
	filled     Set
	reserved   Set
}

func New(showtimeID string, availableSeats int, reserved []int) *SeatMap {
	total := TotalCapacity(showtimeID, availableSeats)

	return &SeatMap{
		ShowtimeID: showtimeID,
		Total:      total,
		filled:     ComputeFilledSeats(showtimeID, total),
		reserved:   NewSet(reserved...),
	}
}

func (m *SeatMap) InRange(seat int) bool {
	return seat >= 1 && seat <= m.Total
}

func (m *SeatMap) IsFilled(seat int) bool {
	return m.filled.Has(seat)
}

func (m *SeatMap) IsReserved(seat int) bool {
	return m.reserved.Has(seat)
}

func (m *SeatMap) Available(seat int) bool {
	return m.InRange(seat) && !m.IsFilled(seat) && !m.IsReserved(seat)
}

func (m *SeatMap) Filled() []int {
	return m.filled.Sorted()
}

func (m *SeatMap) Unavailable() []int {
	unavailable := make(Set, len(m.filled)+len(m.reserved))
	for seat := range m.filled {
		unavailable[seat] = struct{}{}
	}
	for seat := range m.reserved {
		if m.InRange(seat) {
			unavailable[seat] = struct{}{}
		}
	}

	return unavailable.Sorted()
}

func (m *SeatMap) AvailableCount() int {
	return m.Total - len(m.Unavailable())
}

func (m *SeatMap) Rows() int {
	return (m.Total + SeatsPerRow - 1) / SeatsPerRow
}

func (m *SeatMap) Select(selection Selection, seat, required int) Selection {
	return Select(selection, seat, required, m.Available)
}
