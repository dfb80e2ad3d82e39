// Package showtime generates the theaters and showtimes a movie is playing
// at. Generation is seeded by (movie, theater, date) so repeated queries
// return the same screenings, screens and seat counts.
package showtime

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/metinatakli/movie-booking/internal/domain"
	"github.com/metinatakli/movie-booking/internal/seatmap"
	"github.com/shopspring/decimal"
)

const dateLayout = "20060102"

var (
	Slots = []string{"10:00", "13:00", "16:00", "19:00", "22:00"}

	standardModifier = decimal.NewFromInt(1)
	premiumModifier  = decimal.NewFromFloat(1.5)
)

type Generator struct {
	theaters  []domain.Theater
	newSource func(seed int) seatmap.Source
}

type Option func(*Generator)

// WithSource replaces the pseudo-random source used for generation.
func WithSource(fn func(seed int) seatmap.Source) Option {
	return func(g *Generator) {
		g.newSource = fn
	}
}

func NewGenerator(theaters []domain.Theater, opts ...Option) *Generator {
	g := &Generator{
		theaters: theaters,
		newSource: func(seed int) seatmap.Source {
			return seatmap.NewLCG(seed)
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) Theaters() []domain.Theater {
	return g.theaters
}

// GetTheatersWithShowtimes lists every theater with its showtimes for the
// movie on the given day, showtimes ordered by time of day.
func (g *Generator) GetTheatersWithShowtimes(movieID int, date time.Time) []domain.TheaterShowtimes {
	day := Day(date)
	result := make([]domain.TheaterShowtimes, 0, len(g.theaters))

	for i, theater := range g.theaters {
		result = append(result, domain.TheaterShowtimes{
			Theater:   theater,
			Showtimes: g.generate(movieID, i, theater, day),
		})
	}

	return result
}

func (g *Generator) generate(movieID, theaterIndex int, theater domain.Theater, day time.Time) []domain.Showtime {
	src := g.newSource(seedFor(movieID, theaterIndex, day))

	order := make([]int, len(Slots))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	count := min(3+src.Intn(3), len(Slots))
	picked := slices.Clone(order[:count])
	slices.Sort(picked)

	modifier := standardModifier
	if theater.HasAmenity(AmenityIMAX) {
		modifier = premiumModifier
	}

	showtimes := make([]domain.Showtime, 0, count)
	for _, slot := range picked {
		showtimes = append(showtimes, domain.Showtime{
			ID:             FormatID(movieID, theater.ID, day, slot),
			MovieID:        movieID,
			TheaterID:      theater.ID,
			ShowTime:       Slots[slot],
			ShowDate:       day,
			ScreenNumber:   src.Intn(max(theater.TotalScreens, 1)) + 1,
			AvailableSeats: 50 + src.Intn(50),
			PriceModifier:  modifier,
		})
	}

	return showtimes
}

func seedFor(movieID, theaterIndex int, day time.Time) int {
	y, m, d := day.Date()
	return movieID*7919 + theaterIndex*104729 + y*10000 + int(m)*100 + d
}

// FormatID builds a showtime id of the form movie-theater-yyyymmdd-slot.
func FormatID(movieID int, theaterID string, day time.Time, slot int) string {
	return fmt.Sprintf("%d-%s-%s-%d", movieID, theaterID, day.Format(dateLayout), slot)
}

type showtimeKey struct {
	movieID   int
	theaterID string
	day       time.Time
}

func parseID(id string, loc *time.Location) (showtimeKey, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		return showtimeKey{}, fmt.Errorf("malformed showtime id %q", id)
	}

	movieID, err := strconv.Atoi(parts[0])
	if err != nil {
		return showtimeKey{}, fmt.Errorf("malformed showtime id %q: %w", id, err)
	}

	day, err := time.ParseInLocation(dateLayout, parts[2], loc)
	if err != nil {
		return showtimeKey{}, fmt.Errorf("malformed showtime id %q: %w", id, err)
	}

	return showtimeKey{movieID: movieID, theaterID: parts[1], day: day}, nil
}

// Lookup regenerates the showtime with the given id. It returns
// domain.ErrRecordNotFound when no such screening exists.
func (g *Generator) Lookup(id string, loc *time.Location) (domain.Theater, domain.Showtime, error) {
	key, err := parseID(id, loc)
	if err != nil {
		return domain.Theater{}, domain.Showtime{}, fmt.Errorf("%w: %w", domain.ErrRecordNotFound, err)
	}

	for i, theater := range g.theaters {
		if theater.ID != key.theaterID {
			continue
		}

		for _, st := range g.generate(key.movieID, i, theater, key.day) {
			if st.ID == id {
				return theater, st, nil
			}
		}
	}

	return domain.Theater{}, domain.Showtime{}, domain.ErrRecordNotFound
}
