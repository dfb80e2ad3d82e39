package showtime

import "github.com/metinatakli/movie-booking/internal/domain"

const AmenityIMAX = "IMAX"

// DefaultTheaters is the fixed reference data showtimes are generated for.
var DefaultTheaters = []domain.Theater{
	{
		ID:           "1",
		Name:         "PVR Cinemas",
		Location:     "Phoenix Mall, Lower Parel",
		City:         "Mumbai",
		TotalScreens: 8,
		Amenities:    []string{"IMAX", "Dolby Atmos", "Recliner Seats", "Food Court"},
	},
	{
		ID:           "2",
		Name:         "INOX Megaplex",
		Location:     "Inorbit Mall, Malad",
		City:         "Mumbai",
		TotalScreens: 6,
		Amenities:    []string{"4DX", "Dolby Atmos", "VIP Lounge"},
	},
	{
		ID:           "3",
		Name:         "Cinépolis",
		Location:     "Viviana Mall, Thane",
		City:         "Mumbai",
		TotalScreens: 10,
		Amenities:    []string{"IMAX", "VIP Seats", "Online Food Ordering"},
	},
	{
		ID:           "4",
		Name:         "Carnival Cinemas",
		Location:     "Imax Wadala",
		City:         "Mumbai",
		TotalScreens: 5,
		Amenities:    []string{"IMAX", "Premium Seats"},
	},
	{
		ID:           "5",
		Name:         "MovieMax",
		Location:     "Sion",
		City:         "Mumbai",
		TotalScreens: 4,
		Amenities:    []string{"Dolby Sound", "Comfortable Seating"},
	},
}
