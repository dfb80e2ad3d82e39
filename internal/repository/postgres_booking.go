package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/movie-booking/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

const bookingColumns = `
	b.id,
	b.user_id,
	b.movie_id,
	b.showtime_id,
	b.show_time,
	b.seats,
	b.seat_numbers,
	b.total_price,
	b.payment_status,
	b.checkout_session_id,
	b.booking_time,
	b.created_at,
	b.updated_at`

func bookingFields(b *domain.Booking) []any {
	return []any{
		&b.ID,
		&b.UserID,
		&b.MovieID,
		&b.ShowtimeID,
		&b.ShowTime,
		&b.Seats,
		&b.SeatNumbers,
		&b.TotalPrice,
		&b.PaymentStatus,
		&b.CheckoutSessionID,
		&b.BookingTime,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

// Create stores the booking together with one booking_seats row per seat.
// A seat already held by another live booking of the showtime fails with
// ErrSeatAlreadyReserved.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (
				id,
				user_id,
				movie_id,
				showtime_id,
				show_time,
				seats,
				seat_numbers,
				total_price,
				payment_status,
				booking_time
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.ID,
			booking.UserID,
			booking.MovieID,
			booking.ShowtimeID,
			booking.ShowTime,
			booking.Seats,
			booking.SeatNumbers,
			booking.TotalPrice,
			booking.PaymentStatus,
			booking.BookingTime,
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.SeatNumbers))
		for _, seat := range booking.SeatNumbers {
			rows = append(rows, []any{booking.ID, booking.ShowtimeID, seat})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "showtime_id", "seat_number"},
			pgx.CopyFromRows(rows),
		)
		if isUniqueViolation(err) {
			return domain.ErrSeatAlreadyReserved
		}

		return err
	})
}

func (p *PostgresBookingRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, id).Scan(bookingFields(&booking)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

// UpdateStatus applies the transition only while the row still has status
// from. Leaving pending for cancelled releases the held seats in the same
// transaction.
func (p *PostgresBookingRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.PaymentStatus) (*domain.Booking, error) {

	var booking domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings b
			SET payment_status = $3, updated_at = NOW()
			WHERE b.id = $1 AND b.payment_status = $2
			RETURNING ` + bookingColumns

		err := tx.QueryRow(ctx, query, id, from, to).Scan(bookingFields(&booking)...)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return p.missingOrConflict(ctx, tx, id)
			}

			return err
		}

		if to != domain.PaymentStatusCancelled {
			return nil
		}

		_, err = tx.Exec(ctx, `DELETE FROM booking_seats WHERE booking_id = $1`, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) missingOrConflict(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool

	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return domain.ErrRecordNotFound
	}

	return domain.ErrEditConflict
}

func (p *PostgresBookingRepository) SetCheckoutSession(
	ctx context.Context,
	id uuid.UUID,
	checkoutSessionID string) error {

	query := `
		UPDATE bookings
		SET checkout_session_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, id, checkoutSessionID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// GetByUserId lists the user's bookings joined with their movies, most
// recent booking time first.
func (p *PostgresBookingRepository) GetByUserId(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			` + bookingColumns + `,
			m.title,
			m.poster_url
		FROM bookings b
		JOIN movies m ON b.movie_id = m.id
		WHERE b.user_id = $1
		ORDER BY b.booking_time DESC, b.id
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var summary domain.BookingSummary

		dest := append([]any{&totalRecords}, bookingFields(&summary.Booking)...)
		dest = append(dest, &summary.MovieTitle, &summary.MoviePosterUrl)

		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}

func (p *PostgresBookingRepository) GetReservedSeats(ctx context.Context, showtimeID string) ([]int, error) {
	query := `
		SELECT seat_number
		FROM booking_seats
		WHERE showtime_id = $1
		ORDER BY seat_number
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresBookingRepository) GetStalePending(ctx context.Context, createdBefore time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.payment_status = 'pending' AND b.created_at < $1
		ORDER BY b.created_at
	`

	rows, err := p.db.Query(ctx, query, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		if err := rows.Scan(bookingFields(&booking)...); err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}
