// Package postgres provides a PostgreSQL implementation of the user and
// task stores. It uses pgx/v5 for connection pooling and embedded SQL
// migrations for the schema.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/tasks"
	"github.com/rhuss/tasktrack/pkg/users"
)

// PostgreSQL error codes mapped to storage.ErrConflict.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store is a PostgreSQL-backed user and task store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Store implements both store contracts at compile time.
var (
	_ users.Store = (*Store)(nil)
	_ tasks.Store = (*Store)(nil)
)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, logger: cfg.Logger}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateUser inserts u and sets its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *users.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, string(u.Role)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isConflict(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*users.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByEmail retrieves a user by exact email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*users.User, error) {
	var u users.User
	var role string

	err := s.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, role, created_at FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.Role, err = auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	return &u, nil
}

// CountUsers returns the number of stored users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// CreateTask inserts t and sets its ID and CreatedAt. An unknown owner
// violates the foreign key and yields storage.ErrConflict.
func (s *Store) CreateTask(ctx context.Context, t *tasks.Task) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, completed, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, t.Title, t.Completed, t.UserID).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if isConflict(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

const taskColumns = "id, title, completed, user_id, created_at"

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (*tasks.Task, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTask)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return &t, nil
}

// UpdateTask overwrites the title and completed flag of t.ID.
func (s *Store) UpdateTask(ctx context.Context, t *tasks.Task) error {
	result, err := s.pool.Exec(ctx,
		"UPDATE tasks SET title = $1, completed = $2 WHERE id = $3",
		t.Title, t.Completed, t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTasks returns one page of tasks matching f, newest first.
func (s *Store) ListTasks(ctx context.Context, f tasks.Filter, page storage.PageRequest) (storage.Page[tasks.Task], error) {
	page = page.Normalize()

	var conds []string
	var args []any
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		conds = append(conds, "completed = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return storage.Page[tasks.Task]{}, fmt.Errorf("counting tasks: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf("SELECT %s FROM tasks%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		taskColumns, where, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return storage.Page[tasks.Task]{}, fmt.Errorf("listing tasks: %w", err)
	}
	content, err := pgx.CollectRows(rows, scanTask)
	if err != nil {
		return storage.Page[tasks.Task]{}, fmt.Errorf("listing tasks: %w", err)
	}

	return storage.NewPage(content, page, total), nil
}

func scanTask(row pgx.CollectableRow) (tasks.Task, error) {
	var t tasks.Task
	err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &t.CreatedAt)
	return t, err
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isConflict reports whether err is a unique or foreign key violation.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeUniqueViolation || pgErr.Code == codeForeignKeyViolation
}
