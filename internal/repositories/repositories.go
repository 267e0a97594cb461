package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/shared"
)

// ChannelRepository persists the last successful channel listing per scope.
//
// The cache mirrors whatever the backend last returned: ReplaceListing swaps a
// scope's rows wholesale inside a transaction, and Listing reads them back in
// fetch order. Stream URLs are stored as a JSON array in a single column.
type ChannelRepository struct {
	db *sql.DB
}

// NewChannelRepository creates a ChannelRepository with the given database connection
func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// ReplaceListing atomically replaces the cached listing for a scope.
func (r *ChannelRepository) ReplaceListing(scope string, channels []models.Channel) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cached_channels WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("failed to clear listing: %w", err)
	}

	query := `
		INSERT INTO cached_channels (row_id, scope, position, channel_id, name, description, logo, category, urls, is_active, created_by, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	for i, channel := range channels {
		urls, err := json.Marshal(channel.URLs)
		if err != nil {
			return fmt.Errorf("failed to encode stream urls: %w", err)
		}

		_, err = tx.Exec(query,
			shared.GenerateID(),
			scope,
			i,
			channel.ID,
			channel.Name,
			channel.Description,
			channel.Logo,
			channel.Category,
			string(urls),
			channel.IsActive,
			channel.CreatedBy,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert channel: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit listing: %w", err)
	}
	return nil
}

// Listing returns the cached channels for a scope in their original fetch
// order. An unknown scope yields an empty slice, not an error.
func (r *ChannelRepository) Listing(scope string) ([]models.Channel, error) {
	query := `
		SELECT channel_id, name, description, logo, category, urls, is_active, created_by
		FROM cached_channels
		WHERE scope = ?
		ORDER BY position
	`
	rows, err := r.db.Query(query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var channel models.Channel
		var urls string
		err := rows.Scan(
			&channel.ID,
			&channel.Name,
			&channel.Description,
			&channel.Logo,
			&channel.Category,
			&urls,
			&channel.IsActive,
			&channel.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		if err := json.Unmarshal([]byte(urls), &channel.URLs); err != nil {
			return nil, fmt.Errorf("failed to decode stream urls: %w", err)
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	return channels, nil
}

// FetchedAt returns when a scope's listing was cached, or the zero time when
// nothing is cached for it.
func (r *ChannelRepository) FetchedAt(scope string) (time.Time, error) {
	var fetched sql.NullTime
	err := r.db.QueryRow("SELECT MAX(fetched_at) FROM cached_channels WHERE scope = ?", scope).Scan(&fetched)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query fetch time: %w", err)
	}
	if !fetched.Valid {
		return time.Time{}, nil
	}
	return fetched.Time, nil
}

// SaveCategories atomically replaces the cached category set.
func (r *ChannelRepository) SaveCategories(categories []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cached_categories"); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	for _, name := range categories {
		if _, err := tx.Exec("INSERT INTO cached_categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to insert category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	return nil
}

// Categories returns the cached category names in alphabetical order.
func (r *ChannelRepository) Categories() ([]string, error) {
	rows, err := r.db.Query("SELECT name FROM cached_categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

// Clear drops every cached listing and category.
func (r *ChannelRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM cached_channels"); err != nil {
		return fmt.Errorf("failed to clear channel cache: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM cached_categories"); err != nil {
		return fmt.Errorf("failed to clear category cache: %w", err)
	}
	return nil
}

// Counts returns the number of cached channel rows per scope.
func (r *ChannelRepository) Counts() (map[string]int, error) {
	rows, err := r.db.Query("SELECT scope, COUNT(*) FROM cached_channels GROUP BY scope")
	if err != nil {
		return nil, fmt.Errorf("failed to count cache rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var scope string
		var n int
		if err := rows.Scan(&scope, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[scope] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}
	return counts, nil
}
