// Package store реализует офлайн-хранилище треков на SQLite.
//
// Хранилище держит бинарное содержимое и метаданные трека под одним ID.
// Сохранение заменяет запись целиком, удаление отсутствующего ID не является ошибкой.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
)

// Meta - метаданные офлайн-трека
type Meta struct {
	ID        string
	Title     string
	Artist    string
	Album     string
	Duration  float64
	CoverURL  string
	Format    string
	CreatedAt time.Time
}

// Record - метаданные вместе с содержимым
type Record struct {
	Meta
	Content []byte
}

// Store - офлайн-хранилище треков
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger

	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
	getStmt    *sql.Stmt
}

// Open открывает (или создает) базу по указанному пути.
// Любой сбой на этом этапе возвращается как StorageError вида KindUnavailable
func Open(dbPath string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.Unavailable("open", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Unavailable("open", err)
	}

	// Запись в SQLite все равно сериализуется, одно соединение исключает SQLITE_BUSY
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, apperrors.Unavailable("open", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Не удалось применить pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, apperrors.Unavailable("create tables", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, apperrors.Unavailable("prepare statements", err)
	}

	logger.WithField("db_path", dbPath).Debug("Офлайн-хранилище открыто")
	return s, nil
}

func (s *Store) createTables() error {
	table := `
	CREATE TABLE IF NOT EXISTS offline_tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		duration REAL DEFAULT 0,
		cover_url TEXT,
		format TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		content BLOB NOT NULL
	);`

	if _, err := s.conn.Exec(table); err != nil {
		return fmt.Errorf("ошибка создания таблицы offline_tracks: %w", err)
	}
	return nil
}

func (s *Store) prepareStatements() error {
	var err error

	s.upsertStmt, err = s.conn.Prepare(`
		INSERT INTO offline_tracks (id, title, artist, album, duration, cover_url, format, created_at, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			cover_url = excluded.cover_url,
			format = excluded.format,
			created_at = excluded.created_at,
			content = excluded.content`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки upsert: %w", err)
	}

	s.deleteStmt, err = s.conn.Prepare(`DELETE FROM offline_tracks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки delete: %w", err)
	}

	const columns = `id, title, artist, album, duration, cover_url, format, created_at, content`

	s.listStmt, err = s.conn.Prepare(`SELECT ` + columns + ` FROM offline_tracks`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки list: %w", err)
	}

	s.getStmt, err = s.conn.Prepare(`SELECT ` + columns + ` FROM offline_tracks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки get: %w", err)
	}

	return nil
}

// Save сохраняет запись, полностью заменяя существующую с тем же ID
func (s *Store) Save(ctx context.Context, meta Meta, content []byte) error {
	if meta.ID == "" {
		return apperrors.Transaction("save", errors.New("пустой ID трека"))
	}
	if content == nil {
		content = []byte{}
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Transaction("save", err)
	}

	var cover sql.NullString
	if meta.CoverURL != "" {
		cover = sql.NullString{String: meta.CoverURL, Valid: true}
	}

	_, err = tx.StmtContext(ctx, s.upsertStmt).ExecContext(ctx,
		meta.ID, meta.Title, meta.Artist, meta.Album, meta.Duration,
		cover, meta.Format, meta.CreatedAt.UnixMilli(), content)
	if err != nil {
		_ = tx.Rollback()
		return apperrors.Transaction("save", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Transaction("save", err)
	}

	s.logger.WithFields(logrus.Fields{
		"track_id": meta.ID,
		"bytes":    len(content),
	}).Debug("Трек сохранен в офлайн-хранилище")
	return nil
}

// ListAll возвращает все записи вместе с содержимым. Порядок не определен
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, apperrors.Transaction("list", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.Transaction("list", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transaction("list", err)
	}

	return records, nil
}

// Get возвращает одну запись по ID
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	record, err := scanRecord(s.getStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("офлайн-трек", id)
	}
	if err != nil {
		return nil, apperrors.Transaction("get", err)
	}
	return &record, nil
}

// DeleteByID удаляет запись. Отсутствующий ID - пустая операция
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	result, err := s.deleteStmt.ExecContext(ctx, id)
	if err != nil {
		return apperrors.Transaction("delete", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		s.logger.WithField("track_id", id).Debug("Трек удален из офлайн-хранилища")
	}
	return nil
}

// Close закрывает подготовленные запросы и соединение
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.upsertStmt, s.deleteStmt, s.listStmt, s.getStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.conn.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		record    Record
		cover     sql.NullString
		createdAt int64
	)

	err := row.Scan(
		&record.ID, &record.Title, &record.Artist, &record.Album, &record.Duration,
		&cover, &record.Format, &createdAt, &record.Content,
	)
	if err != nil {
		return Record{}, err
	}

	record.CoverURL = cover.String
	record.CreatedAt = time.UnixMilli(createdAt)
	return record, nil
}
