// Package api defines the JSON bodies exchanged over the HTTP surface.
package api

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AlreadyLoggedInResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	Id        int       `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type GetMoviesParams struct {
	Page     *int    `validate:"omitempty,min=1,max=10000"`
	PageSize *int    `validate:"omitempty,min=1,max=100"`
	Term     *string `validate:"omitempty,max=100"`
	Sort     *string `validate:"omitempty,oneof=id -id title -title rating -rating release_year -release_year"`
}

type Movie struct {
	Id          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Genres      []string        `json:"genres"`
	Language    string          `json:"language"`
	ReleaseYear int             `json:"releaseYear"`
	Duration    string          `json:"duration"`
	PosterUrl   string          `json:"posterUrl"`
	BackdropUrl string          `json:"backdropUrl,omitempty"`
	Rating      decimal.Decimal `json:"rating"`
	Price       decimal.Decimal `json:"price"`
	IsFeatured  bool            `json:"isFeatured"`
}

type MoviesResponse struct {
	Movies   []Movie     `json:"movies"`
	Metadata *Pagination `json:"metadata,omitempty"`
}

type AvailableDate struct {
	Date    openapi_types.Date `json:"date"`
	Weekday string             `json:"weekday"`
	IsToday bool               `json:"isToday"`
}

type DatesResponse struct {
	Dates []AvailableDate `json:"dates"`
}

type Showtime struct {
	Id             string          `json:"id"`
	Time           string          `json:"time"`
	DisplayTime    string          `json:"displayTime"`
	ScreenNumber   int             `json:"screenNumber"`
	AvailableSeats int             `json:"availableSeats"`
	PriceModifier  decimal.Decimal `json:"priceModifier"`
}

type Theater struct {
	Id           string     `json:"id"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	City         string     `json:"city"`
	TotalScreens int        `json:"totalScreens"`
	Amenities    []string   `json:"amenities"`
	Showtimes    []Showtime `json:"showtimes,omitempty"`
}

type TheatersResponse struct {
	MovieId  int                `json:"movieId"`
	Date     openapi_types.Date `json:"date"`
	Theaters []Theater          `json:"theaters"`
}

type Seat struct {
	Number    int    `json:"number"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

type SeatRow struct {
	Row   string `json:"row"`
	Seats []Seat `json:"seats"`
}

type SeatMapResponse struct {
	ShowtimeId     string    `json:"showtimeId"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	Rows           []SeatRow `json:"rows"`
}

type OpenFlowRequest struct {
	MovieId int `json:"movieId" validate:"required,min=1"`
}

type SelectDateRequest struct {
	Date openapi_types.Date `json:"date" validate:"required"`
}

type SeatCountRequest struct {
	Count int `json:"count"`
}

type ChooseShowtimeRequest struct {
	ShowtimeId string `json:"showtimeId" validate:"required,max=64"`
}

type FlowMovie struct {
	Id    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

type FlowResponse struct {
	Step          string             `json:"step"`
	Movie         *FlowMovie         `json:"movie,omitempty"`
	Date          openapi_types.Date `json:"date"`
	SeatCount     int                `json:"seatCount"`
	Theater       *Theater           `json:"theater,omitempty"`
	Showtime      *Showtime          `json:"showtime,omitempty"`
	SelectedSeats []string           `json:"selectedSeats"`
	SeatsRequired int                `json:"seatsRequired"`
	TotalPrice    *decimal.Decimal   `json:"totalPrice,omitempty"`
	ShowTimestamp *time.Time         `json:"showTimestamp,omitempty"`
	BookingId     *uuid.UUID         `json:"bookingId,omitempty"`
	CheckoutUrl   string             `json:"checkoutUrl,omitempty"`
}

type VerifyPaymentRequest struct {
	SessionId string    `json:"session_id" validate:"required,max=255"`
	BookingId uuid.UUID `json:"booking_id" validate:"required"`
}

type PaymentAcknowledgement struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	BookingId   uuid.UUID `json:"bookingId"`
	Status      string    `json:"status"`
	AlreadyPaid bool      `json:"alreadyPaid"`
}

type GetBookingsParams struct {
	Page     *int `validate:"omitempty,min=1,max=10000"`
	PageSize *int `validate:"omitempty,min=1,max=100"`
}

type Booking struct {
	Id             uuid.UUID       `json:"id"`
	MovieId        int             `json:"movieId"`
	MovieTitle     string          `json:"movieTitle,omitempty"`
	MoviePosterUrl string          `json:"moviePosterUrl,omitempty"`
	ShowtimeId     string          `json:"showtimeId"`
	ShowTime       time.Time       `json:"showTime"`
	Seats          int             `json:"seats"`
	SeatLabels     []string        `json:"seatLabels"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	PaymentStatus  string          `json:"paymentStatus"`
	BookingTime    time.Time       `json:"bookingTime"`
}

type BookingsResponse struct {
	Bookings []Booking  `json:"bookings"`
	Metadata Pagination `json:"metadata"`
}
