package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rentfold/leaseflow/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repository implements domain.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// Compile-time check: Repository implements domain.Repository.
var _ domain.Repository = (*Repository)(nil)

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*Repository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Repository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *Repository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// --- Properties ---

func (r *Repository) CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO properties (landlord_id, name, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.LandlordID, p.Name, p.Address, formatTime(now), formatTime(now),
	)
	if err != nil {
		return domain.Property{}, fmt.Errorf("inserting property: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Property{}, fmt.Errorf("reading property id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	var p domain.Property
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, landlord_id, name, address, created_at, updated_at
		 FROM properties WHERE id = ?`, id,
	).Scan(&p.ID, &p.LandlordID, &p.Name, &p.Address, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Property{}, domain.ErrPropertyNotFound
		}
		return domain.Property{}, fmt.Errorf("scanning property: %w", err)
	}

	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// --- Rooms ---

func (r *Repository) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Status == "" {
		room.Status = domain.RoomVacantReady
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (property_id, label, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		room.PropertyID, room.Label, string(room.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return domain.Room{}, fmt.Errorf("inserting room: %w", err)
	}

	room.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Room{}, fmt.Errorf("reading room id: %w", err)
	}
	return room, nil
}

func (r *Repository) GetRoom(ctx context.Context, id int64) (domain.Room, error) {
	var room domain.Room
	var status, createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_id, label, status, created_at, updated_at
		 FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.PropertyID, &room.Label, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	room.Status = domain.RoomStatus(status)
	room.CreatedAt = parseTime(createdAt)
	room.UpdatedAt = parseTime(updatedAt)
	return room, nil
}

// --- Tenancies ---

const tenancyColumns = `t.id, t.property_id, t.room_id, t.tenant_name, t.status,
	t.start_date, t.end_date, t.created_at, t.updated_at, p.landlord_id`

func (r *Repository) CreateTenancy(ctx context.Context, t domain.Tenancy) (domain.Tenancy, error) {
	var roomID any
	if t.RoomID != nil {
		roomID = *t.RoomID
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tenancies (property_id, room_id, tenant_name, status, start_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.PropertyID, roomID, t.TenantName, string(t.Status),
		formatTime(t.StartDate), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return domain.Tenancy{}, fmt.Errorf("inserting tenancy: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Tenancy{}, fmt.Errorf("reading tenancy id: %w", err)
	}

	// Re-read through the property join so LandlordID is populated.
	return r.GetTenancy(ctx, id)
}

func (r *Repository) GetTenancy(ctx context.Context, id int64) (domain.Tenancy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tenancyColumns+`
		 FROM tenancies t
		 JOIN properties p ON p.id = t.property_id
		 WHERE t.id = ?`, id,
	)

	t, err := scanTenancy(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenancy{}, domain.ErrTenancyNotFound
		}
		return domain.Tenancy{}, fmt.Errorf("scanning tenancy: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTenancies(ctx context.Context, filter domain.ListFilter) ([]domain.Tenancy, error) {
	query := `SELECT ` + tenancyColumns + `
		 FROM tenancies t
		 JOIN properties p ON p.id = t.property_id`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `t.status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.PropertyID != nil {
		conds = append(conds, `t.property_id = ?`)
		args = append(args, *filter.PropertyID)
	}

	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}

	query += ` ORDER BY t.created_at DESC, t.id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenancies: %w", err)
	}
	defer rows.Close()

	var tenancies []domain.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning tenancy row: %w", err)
		}
		tenancies = append(tenancies, t)
	}

	return tenancies, rows.Err()
}

// ApplyStatusChange writes the tenancy status and the derived room status
// in one transaction. The tenancy update is conditional on the row still
// holding change.Previous; zero rows affected means either the row is gone
// or a concurrent transition won, reported as ErrTenancyNotFound or
// ErrStatusConflict respectively.
func (r *Repository) ApplyStatusChange(ctx context.Context, change domain.StatusChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t := change.Tenancy
	updatedAt := formatTime(change.At)

	var result sql.Result
	if domain.EndsOccupancy(change.Next) {
		// end_date is forward-set on terminal entry, never cleared later.
		result, err = tx.ExecContext(ctx,
			`UPDATE tenancies SET status = ?, updated_at = ?, end_date = ?
			 WHERE id = ? AND status = ?`,
			string(change.Next), updatedAt, updatedAt, t.ID, string(change.Previous),
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE tenancies SET status = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			string(change.Next), updatedAt, t.ID, string(change.Previous),
		)
	}
	if err != nil {
		return fmt.Errorf("updating tenancy status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM tenancies WHERE id = ?`, t.ID,
		).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrTenancyNotFound
			}
			return fmt.Errorf("checking tenancy existence: %w", err)
		}
		return domain.ErrStatusConflict
	}

	if change.RoomStatus != nil && t.RoomID != nil {
		result, err := tx.ExecContext(ctx,
			`UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`,
			string(*change.RoomStatus), updatedAt, *t.RoomID,
		)
		if err != nil {
			return fmt.Errorf("updating room status: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking room rows affected: %w", err)
		}
		if affected == 0 {
			return domain.ErrRoomNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing status change: %w", err)
	}
	return nil
}

// scanTenancy scans one joined tenancy row via the given Scan function,
// shared between QueryRow and Rows.
func scanTenancy(scan func(dest ...any) error) (domain.Tenancy, error) {
	var t domain.Tenancy
	var roomID sql.NullInt64
	var endDate sql.NullString
	var status, startDate, createdAt, updatedAt string

	err := scan(&t.ID, &t.PropertyID, &roomID, &t.TenantName, &status,
		&startDate, &endDate, &createdAt, &updatedAt, &t.LandlordID)
	if err != nil {
		return domain.Tenancy{}, err
	}

	if roomID.Valid {
		t.RoomID = &roomID.Int64
	}
	if endDate.Valid {
		end := parseTime(endDate.String)
		t.EndDate = &end
	}
	t.Status = domain.Status(status)
	t.StartDate = parseTime(startDate)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}
