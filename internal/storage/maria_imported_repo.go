package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry - код ошибки MySQL/MariaDB для нарушения уникальности
const mysqlDuplicateEntry = 1062

// MariaImportedRepo хранит импортированные миры в таблице imported_worlds.
type MariaImportedRepo struct {
	db *sql.DB
}

// NewMariaImportedRepo подключается к MariaDB и создаёт таблицу при необходимости.
// В DSN принудительно включается parseTime.
func NewMariaImportedRepo(ctx context.Context, dsn string) (*MariaImportedRepo, error) {
	dsn, err := mariaDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaImportedRepo{db: db}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// mariaDSN разбирает DSN и включает parseTime для DATETIME-колонок
func mariaDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("некорректный DSN MariaDB: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func mapMariaSaveError(name string, err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return ErrAlreadyExists
	}
	return fmt.Errorf("ошибка сохранения мира %q: %w", name, err)
}

func mapMariaGetError(name string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка загрузки мира %q: %w", name, err)
	}
	return nil
}

func (r *MariaImportedRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS imported_worlds (
			name        VARCHAR(191) PRIMARY KEY,
			text        MEDIUMTEXT   NOT NULL,
			code        VARCHAR(16)  NOT NULL DEFAULT '',
			imported_at DATETIME(6)  NOT NULL,
			INDEX idx_imported_at (imported_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы imported_worlds: %w", err)
	}
	return nil
}

func (r *MariaImportedRepo) Save(ctx context.Context, w ImportedWorld) error {
	if err := validate(w); err != nil {
		return err
	}
	w = stamp(w)

	query := `INSERT INTO imported_worlds (name, text, code, imported_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, w.Name, w.Text, w.Code, w.ImportedAt)
	return mapMariaSaveError(w.Name, err)
}

func (r *MariaImportedRepo) Get(ctx context.Context, name string) (ImportedWorld, error) {
	query := `SELECT name, text, code, imported_at FROM imported_worlds WHERE name = ?`

	var w ImportedWorld
	err := r.db.QueryRowContext(ctx, query, name).Scan(&w.Name, &w.Text, &w.Code, &w.ImportedAt)
	if err := mapMariaGetError(name, err); err != nil {
		return ImportedWorld{}, err
	}
	return w, nil
}

func (r *MariaImportedRepo) List(ctx context.Context) ([]ImportedWorld, error) {
	query := `SELECT name, text, code, imported_at FROM imported_worlds ORDER BY imported_at, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка миров: %w", err)
	}
	defer rows.Close()

	var out []ImportedWorld
	for rows.Next() {
		var w ImportedWorld
		if err := rows.Scan(&w.Name, &w.Text, &w.Code, &w.ImportedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *MariaImportedRepo) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM imported_worlds WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("ошибка удаления мира %q: %w", name, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	return deletedOrNotFound(rowsAffected)
}

func (r *MariaImportedRepo) Close() error {
	return r.db.Close()
}
