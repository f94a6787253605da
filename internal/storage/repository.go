package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// IsConstraintViolation reports whether err comes from a UNIQUE or
// CHECK constraint failure.
func IsConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// User is an account row. The analytics core never sees users; it works
// with bare user IDs.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UpdateExpenseParams carries the optional fields of a partial expense
// update. Nil means "leave unchanged".
type UpdateExpenseParams struct {
	Amount      *float64
	Currency    *string
	BaseAmount  *float64
	Category    *string
	Date        *time.Time
	Description *string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new account and returns its ID.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)
	return id, nil
}

// GetUserByUsername looks an account up for login.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// CreateExpense inserts an expense row and returns its ID. The record is
// assumed validated; the date is truncated to its calendar day.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount, currency, base_amount, category, date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount, e.Currency, e.BaseAmount, e.Category,
		core.DateOnly(e.Date).Format(core.DateFormat), e.Description)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"user_id", e.UserID,
		"category", e.Category,
		"base_amount", e.BaseAmount)

	return id, nil
}

// GetExpense returns one expense scoped to its owner.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id, userID int64) (*core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, currency, base_amount, category, date, description, created_at
		 FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	rec, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return rec, nil
}

// GetExpenseByID returns one expense without user scoping. Used by the
// backup worker, which processes queue messages across all users.
func (r *SQLiteRepository) GetExpenseByID(ctx context.Context, id int64) (*core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, currency, base_amount, category, date, description, created_at
		 FROM expenses WHERE id = ?`, id)
	rec, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	return rec, nil
}

// UpdateExpense applies a partial update scoped to the owner.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id, userID int64, p UpdateExpenseParams) error {
	var (
		sets []string
		args []any
	)
	if p.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *p.Amount)
	}
	if p.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *p.Currency)
	}
	if p.BaseAmount != nil {
		sets = append(sets, "base_amount = ?")
		args = append(args, *p.BaseAmount)
	}
	if p.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *p.Category)
	}
	if p.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, core.DateOnly(*p.Date).Format(core.DateFormat))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if len(sets) == 0 {
		return nil
	}
	// Edited rows need to be mirrored again
	sets = append(sets, "sync_status = 'pending'")

	args = append(args, id, userID)
	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "expense_id", id, "user_id", userID)
	return nil
}

// DeleteExpense removes an expense scoped to the owner.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "user_id", userID)
	return nil
}

// Fetch returns one user's expenses, newest date first, honoring the
// optional filter bounds. No rows is an empty slice, not an error.
func (r *SQLiteRepository) Fetch(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseRecord, error) {
	query := `SELECT id, user_id, amount, currency, base_amount, category, date, description, created_at
	          FROM expenses WHERE user_id = ?`
	args := []any{userID}

	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, core.DateOnly(*f.From).Format(core.DateFormat))
	}
	if f.To != nil {
		query += " AND date <= ?"
		args = append(args, core.DateOnly(*f.To).Format(core.DateFormat))
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	defer rows.Close()

	records := []core.ExpenseRecord{}
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return records, nil
}

// PendingBackups returns IDs of rows not yet mirrored to the backup
// spreadsheet, oldest first.
func (r *SQLiteRepository) PendingBackups(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM expenses WHERE sync_status = 'pending' ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending backups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending backup id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending backups: %w", err)
	}
	return ids, nil
}

// MarkSynced records a successful mirror of an expense row.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// MarkSyncError flags an expense row whose mirror attempt failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "expense_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.ExpenseRecord, error) {
	var (
		rec     core.ExpenseRecord
		dateStr string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Amount, &rec.Currency, &rec.BaseAmount,
		&rec.Category, &dateStr, &rec.Description, &rec.CreatedAt); err != nil {
		return nil, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	rec.Date = date
	return &rec, nil
}
