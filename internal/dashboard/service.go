package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/cvdesk/cvdesk/internal/authz"
)

// StatusCount is one slice of the status breakdown chart.
type StatusCount struct {
	Status string
	Count  int
}

// DesignerLoad is the open-task count for one designer.
type DesignerLoad struct {
	DesignerID   string
	DesignerName string
	Open         int
}

// RecentTask is a trimmed row for the recent-activity list.
type RecentTask struct {
	ID         string
	ClientName string
	Status     string
	UpdatedAt  time.Time
}

// Summary is everything the dashboard page shows. Personal numbers are
// always present; team numbers are filled only for view_all holders.
type Summary struct {
	MyOpen       int
	MyInReview   int
	MyCompleted  int
	TeamByStatus []StatusCount
	TeamLoad     []DesignerLoad
	Recent       []RecentTask
}

// Service assembles the dashboard summary. The team-wide queries run
// concurrently since none depends on another.
type Service struct {
	pool   *pgxpool.Pool
	table  *authz.RoleTable
	logger *slog.Logger
}

// NewService returns a dashboard Service.
func NewService(pool *pgxpool.Pool, table *authz.RoleTable, logger *slog.Logger) *Service {
	return &Service{pool: pool, table: table, logger: logger}
}

// Summarize builds the summary for the given principal.
func (s *Service) Summarize(ctx context.Context, principal *authz.Principal) (*Summary, error) {
	summary := &Summary{}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.personalCounts(ctx, principal.ID, summary)
	})

	if s.table.HasCapability(principal.Role, authz.CapViewAll) {
		g.Go(func() error {
			counts, err := s.teamByStatus(ctx)
			summary.TeamByStatus = counts
			return err
		})
		g.Go(func() error {
			load, err := s.teamLoad(ctx)
			summary.TeamLoad = load
			return err
		})
		g.Go(func() error {
			recent, err := s.recent(ctx, 8)
			summary.Recent = recent
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) personalCounts(ctx context.Context, userID string, summary *Summary) error {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tasks
		 WHERE assigned_designer_id = $1 OR assigned_reviewer_id = $1
		 GROUP BY status`, userID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return err
		}
		switch status {
		case "completed":
			summary.MyCompleted = count
		case "in_review":
			summary.MyInReview = count
		default:
			summary.MyOpen += count
		}
	}
	return rows.Err()
}

func (s *Service) teamByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tasks GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *Service) teamLoad(ctx context.Context) ([]DesignerLoad, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, COUNT(t.id)
		 FROM users u
		 JOIN tasks t ON t.assigned_designer_id = u.id AND t.status <> 'completed'
		 WHERE u.role = 'designer'
		 GROUP BY u.id, u.name
		 ORDER BY COUNT(t.id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var load []DesignerLoad
	for rows.Next() {
		var l DesignerLoad
		if err := rows.Scan(&l.DesignerID, &l.DesignerName, &l.Open); err != nil {
			return nil, err
		}
		load = append(load, l)
	}
	return load, rows.Err()
}

func (s *Service) recent(ctx context.Context, limit int) ([]RecentTask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_name, status, updated_at FROM tasks
		 ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recent []RecentTask
	for rows.Next() {
		var t RecentTask
		if err := rows.Scan(&t.ID, &t.ClientName, &t.Status, &t.UpdatedAt); err != nil {
			return nil, err
		}
		recent = append(recent, t)
	}
	return recent, rows.Err()
}
