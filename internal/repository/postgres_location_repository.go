package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

const locationColumns = `id, place_id, name, address, latitude, longitude, keyword, types,
	phone, website, photo_url, review_summary, user_ratings_total, num_reviews, rating`

// locationRow is the PostgreSQL shape of a location.
type locationRow struct {
	ID               string   `db:"id"`
	PlaceID          string   `db:"place_id"`
	Name             string   `db:"name"`
	Address          string   `db:"address"`
	Latitude         float64  `db:"latitude"`
	Longitude        float64  `db:"longitude"`
	Keyword          string   `db:"keyword"`
	Types            string   `db:"types"`
	Phone            *string  `db:"phone"`
	Website          *string  `db:"website"`
	Photo            *string  `db:"photo_url"`
	ReviewSummary    *string  `db:"review_summary"`
	UserRatingsTotal *int     `db:"user_ratings_total"`
	NumReviews       *int     `db:"num_reviews"`
	Rating           *float64 `db:"rating"`
}

func (r locationRow) toModel() model.Location {
	return model.Location{
		ID:               r.ID,
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Keyword:          r.Keyword,
		Types:            r.Types,
		Phone:            r.Phone,
		Website:          r.Website,
		Photo:            r.Photo,
		ReviewSummary:    r.ReviewSummary,
		UserRatingsTotal: r.UserRatingsTotal,
		NumReviews:       r.NumReviews,
		Rating:           r.Rating,
	}
}

// PostgresLocationRepository stores locations in PostgreSQL.
type PostgresLocationRepository struct {
	db *sqlx.DB
}

// NewPostgresLocationRepository creates a repository over an open sqlx connection.
func NewPostgresLocationRepository(db *sqlx.DB) *PostgresLocationRepository {
	return &PostgresLocationRepository{db: db}
}

// Create inserts a new location with a generated UUID.
func (r *PostgresLocationRepository) Create(ctx context.Context, in model.LocationInput) (*model.Location, error) {
	loc := model.NewLocation(uuid.NewString(), in)
	query := `INSERT INTO locations (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query,
		loc.ID, loc.PlaceID, loc.Name, loc.Address, loc.Latitude, loc.Longitude, loc.Keyword, loc.Types,
		loc.Phone, loc.Website, loc.Photo, loc.ReviewSummary, loc.UserRatingsTotal, loc.NumReviews, loc.Rating,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert location: %w", err)
	}
	return &loc, nil
}

// ListAll returns all locations in insertion order.
func (r *PostgresLocationRepository) ListAll(ctx context.Context) ([]model.Location, error) {
	rows := []locationRow{}
	err := r.db.SelectContext(ctx, &rows, "SELECT "+locationColumns+" FROM locations ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	locations := make([]model.Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row.toModel())
	}
	return locations, nil
}

// GetByID returns the location with the given identifier.
func (r *PostgresLocationRepository) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var row locationRow
	err := r.db.GetContext(ctx, &row, "SELECT "+locationColumns+" FROM locations WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", id, err)
	}
	loc := row.toModel()
	return &loc, nil
}

// UpdateByID sets only the supplied columns and returns the updated row.
func (r *PostgresLocationRepository) UpdateByID(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	sets, args := patchAssignments(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	query := "UPDATE locations SET " + strings.Join(sets, ", ") + " WHERE id=? RETURNING " + locationColumns
	args = append(args, id)
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var row locationRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update location %s: %w", id, err)
	}
	loc := row.toModel()
	return &loc, nil
}

// DeleteByID removes the location with the given identifier.
func (r *PostgresLocationRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id=$1", id)
	if err != nil {
		return fmt.Errorf("failed to delete location %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete location %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// patchAssignments builds "column=?" fragments in schema order.
func patchAssignments(p model.LocationPatch) ([]string, []interface{}) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		sets = append(sets, column+"=?")
		args = append(args, value)
	}
	if p.PlaceID != nil {
		add("place_id", *p.PlaceID)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Latitude != nil {
		add("latitude", *p.Latitude)
	}
	if p.Longitude != nil {
		add("longitude", *p.Longitude)
	}
	if p.Keyword != nil {
		add("keyword", *p.Keyword)
	}
	if p.Types != nil {
		add("types", *p.Types)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Website != nil {
		add("website", *p.Website)
	}
	if p.Photo != nil {
		add("photo_url", *p.Photo)
	}
	if p.ReviewSummary != nil {
		add("review_summary", *p.ReviewSummary)
	}
	if p.UserRatingsTotal != nil {
		add("user_ratings_total", *p.UserRatingsTotal)
	}
	if p.NumReviews != nil {
		add("num_reviews", *p.NumReviews)
	}
	if p.Rating != nil {
		add("rating", *p.Rating)
	}
	return sets, args
}
