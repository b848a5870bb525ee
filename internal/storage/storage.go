package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a todo id does not exist.
	ErrNotFound = errors.New("todo not found")
	// ErrEmptyTask is returned when adding a todo with no text.
	ErrEmptyTask = errors.New("todo task is empty")
)

// TodoItem is a single entry of the todo list.
type TodoItem struct {
	ID   uint32 `json:"id"`
	Done bool   `json:"done"`
	Task string `json:"task"`
}

// Storage persists todos in SQLite
type Storage struct {
	db      *sql.DB
	writeMu sync.Mutex // Serialize write operations
}

// New opens the database at path, creating it and its schema if needed.
func New(path string) (*Storage, error) {
	// Add busy_timeout and WAL mode via connection string
	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify pragmas are set
	if _, err := db.Exec("PRAGMA busy_timeout=10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		done BOOLEAN DEFAULT false,
		task TEXT NOT NULL
	);
	`)
	return err
}

// Close closes the storage
func (s *Storage) Close() error {
	return s.db.Close()
}

// ListTodos returns every todo in insertion order.
func (s *Storage) ListTodos(ctx context.Context) ([]TodoItem, error) {
	return s.query(ctx, `SELECT id, done, task FROM todos ORDER BY id`)
}

// SearchTodos returns the todos whose task contains search, case-insensitively
// for ASCII. An empty search matches everything.
func (s *Storage) SearchTodos(ctx context.Context, search string) ([]TodoItem, error) {
	if strings.TrimSpace(search) == "" {
		return s.ListTodos(ctx)
	}
	return s.query(ctx, `
		SELECT id, done, task FROM todos
		WHERE task LIKE ? ESCAPE '\'
		ORDER BY id
	`, "%"+escapeLike(search)+"%")
}

func (s *Storage) query(ctx context.Context, query string, args ...any) ([]TodoItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []TodoItem{}
	for rows.Next() {
		var item TodoItem
		if err := rows.Scan(&item.ID, &item.Done, &item.Task); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// CountTodos returns the total and completed number of todos.
func (s *Storage) CountTodos(ctx context.Context) (total, done int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN done THEN 1 ELSE 0 END), 0) FROM todos
	`).Scan(&total, &done)
	return total, done, err
}

// AddTodo inserts a new, not yet done, todo.
func (s *Storage) AddTodo(ctx context.Context, task string) (TodoItem, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return TodoItem{}, ErrEmptyTask
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `INSERT INTO todos (task, done) VALUES (?, false)`, task)
	if err != nil {
		return TodoItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return TodoItem{}, err
	}
	return TodoItem{ID: uint32(id), Task: task}, nil
}

// DeleteTodo removes a single todo.
func (s *Storage) DeleteTodo(ctx context.Context, id uint32) error {
	return s.execOne(ctx, id, `DELETE FROM todos WHERE id = ?`, id)
}

// ToggleTodo flips the done flag of a single todo.
func (s *Storage) ToggleTodo(ctx context.Context, id uint32) error {
	return s.execOne(ctx, id, `
		UPDATE todos SET done = (CASE WHEN done = false THEN true ELSE false END)
		WHERE id = ?
	`, id)
}

// DeleteAll removes every todo.
func (s *Storage) DeleteAll(ctx context.Context) error {
	return s.exec(ctx, `DELETE FROM todos`)
}

// MarkAllDone sets every todo to done.
func (s *Storage) MarkAllDone(ctx context.Context) error {
	return s.exec(ctx, `UPDATE todos SET done = true`)
}

// MarkAllUndone sets every todo to not done.
func (s *Storage) MarkAllUndone(ctx context.Context) error {
	return s.exec(ctx, `UPDATE todos SET done = false`)
}

// ReplaceAll atomically swaps the whole list for items, keeping their ids.
func (s *Storage) ReplaceAll(ctx context.Context, items []TodoItem) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return err
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO todos (id, done, task) VALUES (?, ?, ?)
		`, item.ID, item.Done, item.Task)
		if err != nil {
			return fmt.Errorf("failed to restore todo %d: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Storage) exec(ctx context.Context, query string, args ...any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *Storage) execOne(ctx context.Context, id uint32, query string, args ...any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
