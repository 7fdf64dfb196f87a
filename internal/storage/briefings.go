package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hoanghai1803/daybrief/internal/models"
)

// MaxBriefings is the number of briefing records kept. Older ones are pruned
// on save.
const MaxBriefings = 100

// createdAtLayout sorts lexically in UTC.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Day-part names.
const (
	DaypartMorning   = "morning"
	DaypartAfternoon = "afternoon"
	DaypartEvening   = "evening"
	DaypartNight     = "night"
)

// Daypart maps an hour of day to its day-part: morning 5-11, afternoon
// 12-17, evening 18-23, night 0-4.
func Daypart(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return DaypartMorning
	case hour >= 12 && hour < 18:
		return DaypartAfternoon
	case hour >= 18:
		return DaypartEvening
	default:
		return DaypartNight
	}
}

// SaveBriefing inserts a briefing with its topics. The day and day-part are
// taken from rec.CreatedAt in its own location, so callers pass local time.
func (s *Store) SaveBriefing(ctx context.Context, rec *models.BriefingRecord) error {
	rec.Daypart = Daypart(rec.CreatedAt.Hour())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning briefing transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx,
		`INSERT INTO briefings (id, created_at, day, daypart, duration, trigger, script)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(createdAtLayout), rec.CreatedAt.Format("2006-01-02"),
		rec.Daypart, string(rec.Duration), rec.Trigger, rec.Script,
	)
	if err != nil {
		return fmt.Errorf("inserting briefing %s: %w", rec.ID, err)
	}

	for i, topic := range rec.Topics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO briefing_topics (briefing_id, position, title, url, source)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.ID, i, topic.Title, topic.URL, topic.Source,
		); err != nil {
			return fmt.Errorf("inserting topic %d of briefing %s: %w", i, rec.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM briefings WHERE id NOT IN (
			SELECT id FROM briefings ORDER BY created_at DESC, id DESC LIMIT ?
		)`, MaxBriefings)
	if err != nil {
		return fmt.Errorf("pruning briefings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing briefing %s: %w", rec.ID, err)
	}
	return nil
}

// ListBriefings returns the most recent briefings, newest first, with their
// topics.
func (s *Store) ListBriefings(ctx context.Context, limit int) ([]models.BriefingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, daypart, duration, trigger, script
		 FROM briefings
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying briefings: %w", err)
	}

	records := []models.BriefingRecord{}
	for rows.Next() {
		var (
			rec       models.BriefingRecord
			createdAt string
			duration  string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Daypart, &duration, &rec.Trigger, &rec.Script); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning briefing row: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		rec.Duration = models.DurationBucket(duration)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating briefing rows: %w", err)
	}
	rows.Close()

	// Topics are loaded after the outer cursor is closed; the pool has a
	// single connection.
	for i := range records {
		topics, err := s.briefingTopics(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Topics = topics
	}
	return records, nil
}

// TopicsCoveredInDaypart returns the topics of every briefing created on
// now's calendar day within now's day-part.
func (s *Store) TopicsCoveredInDaypart(ctx context.Context, now time.Time) ([]models.Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.title, t.url, t.source
		 FROM briefing_topics t
		 JOIN briefings b ON b.id = t.briefing_id
		 WHERE b.day = ? AND b.daypart = ?
		 ORDER BY b.created_at, t.position`,
		now.Format("2006-01-02"), Daypart(now.Hour()))
	if err != nil {
		return nil, fmt.Errorf("querying daypart topics: %w", err)
	}
	defer rows.Close()

	return scanTopics(rows)
}

func (s *Store) briefingTopics(ctx context.Context, id string) ([]models.Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, url, source FROM briefing_topics
		 WHERE briefing_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying topics of briefing %s: %w", id, err)
	}
	defer rows.Close()

	return scanTopics(rows)
}

func scanTopics(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Topic, error) {
	topics := []models.Topic{}
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.Title, &t.URL, &t.Source); err != nil {
			return nil, fmt.Errorf("scanning topic row: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating topic rows: %w", err)
	}
	return topics, nil
}
