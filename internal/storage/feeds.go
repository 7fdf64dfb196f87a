package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// defaultFeeds are seeded inactive into a new database so they can be
// switched on from the API.
var defaultFeeds = []models.RSSFeed{
	{Name: "BBC News - Top Stories", URL: "https://feeds.bbci.co.uk/news/rss.xml", Category: "general"},
	{Name: "NPR News", URL: "https://feeds.npr.org/1001/rss.xml", Category: "general"},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "technology"},
	{Name: "ScienceDaily", URL: "https://www.sciencedaily.com/rss/top.xml", Category: "science"},
}

// GetAllFeeds returns every curated feed ordered by name.
func (s *Store) GetAllFeeds(ctx context.Context) ([]models.RSSFeed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, category, is_active, created_at
		 FROM rss_feeds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying all feeds: %w", err)
	}
	defer rows.Close()

	return scanFeeds(rows)
}

// GetActiveFeeds returns the curated feeds with is_active = 1.
func (s *Store) GetActiveFeeds(ctx context.Context) ([]models.RSSFeed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, category, is_active, created_at
		 FROM rss_feeds WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying active feeds: %w", err)
	}
	defer rows.Close()

	return scanFeeds(rows)
}

// AddFeed inserts a curated feed and returns its ID. The category is
// lowercased and defaults to "general".
func (s *Store) AddFeed(ctx context.Context, feed models.RSSFeed) (int64, error) {
	category := strings.ToLower(strings.TrimSpace(feed.Category))
	if category == "" {
		category = models.CategoryGeneral
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rss_feeds (name, url, category, is_active) VALUES (?, ?, ?, ?)`,
		feed.Name, feed.URL, category, boolToInt(feed.IsActive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("adding feed %q: %w", feed.URL, ErrConflict)
		}
		return 0, fmt.Errorf("adding feed %q: %w", feed.URL, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting feed id: %w", err)
	}
	return id, nil
}

// ToggleFeed sets the is_active flag for the feed. It returns ErrNotFound if
// no feed has that ID.
func (s *Store) ToggleFeed(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rss_feeds SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("toggling feed %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for feed %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaultFeeds inserts defaultFeeds when the table is empty. Calling it
// again is a no-op.
func (s *Store) SeedDefaultFeeds(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rss_feeds`).Scan(&count); err != nil {
		return fmt.Errorf("counting feeds: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rss_feeds (name, url, category, is_active) VALUES (?, ?, ?, 0)`)
	if err != nil {
		return fmt.Errorf("preparing seed statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range defaultFeeds {
		if _, err := stmt.ExecContext(ctx, f.Name, f.URL, f.Category); err != nil {
			return fmt.Errorf("seeding feed %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}

// DefaultFeedCount returns the number of feeds SeedDefaultFeeds inserts.
func DefaultFeedCount() int {
	return len(defaultFeeds)
}

func scanFeeds(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.RSSFeed, error) {
	feeds := []models.RSSFeed{}
	for rows.Next() {
		var (
			f         models.RSSFeed
			isActive  int
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.URL, &f.Category, &isActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning feed row: %w", err)
		}
		f.IsActive = isActive == 1
		f.CreatedAt = parseTime(createdAt)
		feeds = append(feeds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feed rows: %w", err)
	}
	return feeds, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
