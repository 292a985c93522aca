package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/louisbranch/adgeletti/internal/ads/catalog"
	"github.com/louisbranch/adgeletti/internal/ads/catalog/sqlite/migrations"
	apperrors "github.com/louisbranch/adgeletti/internal/platform/errors"
	sqlitemigrate "github.com/louisbranch/adgeletti/internal/platform/storage/sqlitemigrate"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists the ad catalog in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite catalog store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutSite inserts a site or updates its domain and name.
func (s *Store) PutSite(ctx context.Context, site catalog.Site) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(site.ID)
	if id == "" {
		return apperrors.New(apperrors.CodeCatalogSiteRequired, "site id is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sites (id, domain, name) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET domain = excluded.domain, name = excluded.name`,
		id,
		strings.ToLower(strings.TrimSpace(site.Domain)),
		strings.TrimSpace(site.Name),
	)
	if err != nil {
		return fmt.Errorf("put site: %w", err)
	}
	return nil
}

// PutAdUnit inserts an ad unit or moves it to another site.
func (s *Store) PutAdUnit(ctx context.Context, unit catalog.AdUnit) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	unitID := strings.TrimSpace(unit.UnitID)
	if unitID == "" {
		return apperrors.New(apperrors.CodeCatalogInvalidPosition, "ad unit id is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO ad_units (unit_id, site_id) VALUES (?, ?)
		 ON CONFLICT (unit_id) DO UPDATE SET site_id = excluded.site_id`,
		unitID,
		strings.TrimSpace(unit.SiteID),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrNotFound
		}
		return fmt.Errorf("put ad unit: %w", err)
	}
	return nil
}

// PutPosition inserts a position, or replaces the sizes of an existing one
// with the same slot, breakpoint and ad unit.
func (s *Store) PutPosition(ctx context.Context, position catalog.Position) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := position.Validate(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put position: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var positionID int64
	err = tx.QueryRowContext(
		ctx,
		`INSERT INTO ad_positions (slot, breakpoint, unit_id) VALUES (?, ?, ?)
		 ON CONFLICT (slot, breakpoint, unit_id) DO UPDATE SET slot = excluded.slot
		 RETURNING id`,
		position.Slot,
		position.Breakpoint,
		position.UnitID,
	).Scan(&positionID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrNotFound
		}
		return fmt.Errorf("put position: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ad_position_sizes WHERE position_id = ?`, positionID); err != nil {
		return fmt.Errorf("clear position sizes: %w", err)
	}
	for _, size := range position.Sizes {
		var sizeID int64
		err := tx.QueryRowContext(
			ctx,
			`INSERT INTO sizes (width, height) VALUES (?, ?)
			 ON CONFLICT (width, height) DO UPDATE SET width = excluded.width
			 RETURNING id`,
			size.Width,
			size.Height,
		).Scan(&sizeID)
		if err != nil {
			return fmt.Errorf("put size %s: %w", size, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO ad_position_sizes (position_id, size_id) VALUES (?, ?)`,
			positionID,
			sizeID,
		); err != nil {
			return fmt.Errorf("link size %s: %w", size, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put position: %w", err)
	}
	return nil
}

// SiteIDForDomain returns the id of the site served from domain.
func (s *Store) SiteIDForDomain(ctx context.Context, domain string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", catalog.ErrNotFound
	}
	var siteID string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT id FROM sites WHERE domain = ? ORDER BY id LIMIT 1`, domain).Scan(&siteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", catalog.ErrNotFound
		}
		return "", fmt.Errorf("site for domain: %w", err)
	}
	return siteID, nil
}

// FindPositions implements catalog.Lookup.
func (s *Store) FindPositions(ctx context.Context, siteID string, slots, breakpoints []string) ([]catalog.Position, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(siteID) == "" {
		return nil, apperrors.New(apperrors.CodeCatalogSiteRequired, "site id is required")
	}
	if len(slots) == 0 || len(breakpoints) == 0 {
		return nil, nil
	}

	args := make([]any, 0, 1+len(slots)+len(breakpoints))
	args = append(args, siteID)
	for _, slot := range slots {
		args = append(args, slot)
	}
	for _, breakpoint := range breakpoints {
		args = append(args, breakpoint)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT p.id, p.slot, p.breakpoint, p.unit_id
		   FROM ad_positions p
		   JOIN ad_units u ON u.unit_id = p.unit_id
		  WHERE u.site_id = ?
		    AND p.slot IN (`+placeholders(len(slots))+`)
		    AND p.breakpoint IN (`+placeholders(len(breakpoints))+`)
		  ORDER BY p.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("find positions: %w", err)
	}
	defer rows.Close()

	var positions []catalog.Position
	var ids []any
	index := map[int64]int{}
	for rows.Next() {
		var id int64
		var position catalog.Position
		if err := rows.Scan(&id, &position.Slot, &position.Breakpoint, &position.UnitID); err != nil {
			return nil, fmt.Errorf("find positions: %w", err)
		}
		index[id] = len(positions)
		ids = append(ids, id)
		positions = append(positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, nil
	}

	if err := s.loadSizes(ctx, ids, index, positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *Store) loadSizes(ctx context.Context, ids []any, index map[int64]int, positions []catalog.Position) error {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT ps.position_id, z.width, z.height
		   FROM ad_position_sizes ps
		   JOIN sizes z ON z.id = ps.size_id
		  WHERE ps.position_id IN (`+placeholders(len(ids))+`)
		  ORDER BY ps.position_id ASC, z.width ASC, z.height ASC`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("load position sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var positionID int64
		var size catalog.Size
		if err := rows.Scan(&positionID, &size.Width, &size.Height); err != nil {
			return fmt.Errorf("load position sizes: %w", err)
		}
		i, ok := index[positionID]
		if !ok {
			continue
		}
		positions[i].Sizes = append(positions[i].Sizes, size)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load position sizes: %w", err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ catalog.Store = (*Store)(nil)
