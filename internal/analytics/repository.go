// Package analytics records page views and aggregates traffic statistics.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PageView is one recorded visit.
type PageView struct {
	Page     string    `json:"page"`
	Visitor  string    `json:"visitor"`
	ViewedAt time.Time `json:"viewedAt"`
}

// PageCount is a page with its view count.
type PageCount struct {
	Page  string `json:"page"`
	Views int64  `json:"views"`
}

// DayCount is one day's view count.
type DayCount struct {
	Day   string `json:"day"`
	Views int64  `json:"views"`
}

// Summary aggregates recorded traffic.
type Summary struct {
	TotalViews     int64       `json:"totalViews"`
	TodayViews     int64       `json:"todayViews"`
	UniqueVisitors int64       `json:"uniqueVisitors"`
	WeeklyViews    int64       `json:"weeklyViews"`
	PopularPages   []PageCount `json:"popularPages"`
	VisitsByDay    []DayCount  `json:"visitsByDay"`
}

// Repository defines persistent storage for page views.
type Repository interface {
	Record(ctx context.Context, page, visitor string) error
	Summarize(ctx context.Context) (Summary, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL page-view repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Record(ctx context.Context, page, visitor string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO page_views (page, visitor, viewed_at) VALUES ($1, $2, NOW())`,
		page, visitor)
	if err != nil {
		return fmt.Errorf("recording page view for %s: %w", page, err)
	}
	return nil
}

func (r *PgRepository) Summarize(ctx context.Context) (Summary, error) {
	var s Summary

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE viewed_at >= date_trunc('day', NOW())),
		       COUNT(DISTINCT visitor),
		       COUNT(*) FILTER (WHERE viewed_at >= NOW() - INTERVAL '7 days')
		FROM page_views`).
		Scan(&s.TotalViews, &s.TodayViews, &s.UniqueVisitors, &s.WeeklyViews)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing page views: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT page, COUNT(*) AS views
		FROM page_views
		GROUP BY page
		ORDER BY views DESC
		LIMIT 10`)
	if err != nil {
		return Summary{}, fmt.Errorf("querying popular pages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p PageCount
		if err := rows.Scan(&p.Page, &p.Views); err != nil {
			return Summary{}, fmt.Errorf("scanning popular page: %w", err)
		}
		s.PopularPages = append(s.PopularPages, p)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterating popular pages: %w", err)
	}

	dayRows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('day', viewed_at), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM page_views
		WHERE viewed_at >= NOW() - INTERVAL '30 days'
		GROUP BY day
		ORDER BY day`)
	if err != nil {
		return Summary{}, fmt.Errorf("querying visits by day: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var d DayCount
		if err := dayRows.Scan(&d.Day, &d.Views); err != nil {
			return Summary{}, fmt.Errorf("scanning day count: %w", err)
		}
		s.VisitsByDay = append(s.VisitsByDay, d)
	}
	return s, dayRows.Err()
}
