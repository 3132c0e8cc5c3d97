package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go-secops-console-api/internal/config"
)

// User is one console operator account row.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ServiceStats contains lightweight DB health and volume counters.
type ServiceStats struct {
	PingMS        int64 `json:"ping_ms"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	UsersTotal    int64 `json:"users_total"`
	AdminsTotal   int64 `json:"admins_total"`
}

// Store manages console user accounts in MySQL.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewStore(cfg config.Config) (*Store, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS console_users (
  id BIGINT PRIMARY KEY AUTO_INCREMENT,
  name VARCHAR(255) NOT NULL UNIQUE,
  role VARCHAR(32) NOT NULL DEFAULT 'Viewer',
  status VARCHAR(32) NOT NULL DEFAULT 'active',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, queryTimeout: cfg.DBQueryTimeout}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListUsers returns accounts matching an optional name query and role
// filter, ordered by name.
func (s *Store) ListUsers(ctx context.Context, query, role string, limit int) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if q := strings.TrimSpace(query); q != "" {
		clauses = append(clauses, "name LIKE ?")
		args = append(args, "%"+q+"%")
	}
	if r := strings.TrimSpace(role); r != "" && !strings.EqualFold(r, "all") {
		clauses = append(clauses, "role = ?")
		args = append(args, r)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, name, role, status, created_at
FROM console_users
%s
ORDER BY name
LIMIT ?;
`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, limit)
	for rows.Next() {
		var (
			item      User
			createdAt sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Role, &item.Status, &createdAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			t := createdAt.Time.UTC()
			item.CreatedAt = &t
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser inserts an account. Role defaults to Viewer and is restricted
// to the roles the console understands.
func (s *Store) CreateUser(ctx context.Context, name, role string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("user name is required")
	}
	role = normalizeRole(role)
	if role == "" {
		return 0, fmt.Errorf("unsupported role")
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO console_users (name, role)
VALUES (?, ?);
`, name, role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteUser removes an account by id, returning the affected row count.
func (s *Store) DeleteUser(ctx context.Context, id int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM console_users WHERE id = ?;`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ServiceStats returns MySQL health and account counters.
func (s *Store) ServiceStats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}
	out := &ServiceStats{PingMS: time.Since(start).Milliseconds()}

	var statusName string
	var statusValue sql.NullString
	if err := s.db.QueryRowContext(ctx, `SHOW GLOBAL STATUS LIKE 'Uptime';`).Scan(&statusName, &statusValue); err == nil && statusValue.Valid {
		if v, err := time.ParseDuration(statusValue.String + "s"); err == nil {
			out.UptimeSeconds = int64(v.Seconds())
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM console_users;`).Scan(&out.UsersTotal); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM console_users WHERE role = 'Admin';`).Scan(&out.AdminsTotal); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "viewer":
		return "Viewer"
	case "admin":
		return "Admin"
	default:
		return ""
	}
}
