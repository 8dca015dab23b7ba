// Package storage is the SQLite persistence layer. All SQL lives here; the
// rest of the application works with core types only. Timestamps are stored
// as RFC 3339 text, currency as integer cents.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"loadbook/internal/core"

	_ "modernc.org/sqlite"
)

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

// fmtTime and parseTime convert between time.Time and the stored RFC 3339
// text form. An empty string maps to nil for optional timestamps.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const loadColumns = `id, load_number, shipper_id, consignee_id, pickup_date,
	actual_pickup_time, delivery_date, actual_delivery_time,
	freight_rate_cents, status, cancelled`

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(s scanner) (core.Load, error) {
	var (
		l                core.Load
		pickup, delivery string
		actualPickup     sql.NullString
		actualDelivery   sql.NullString
		status           string
	)
	err := s.Scan(&l.ID, &l.LoadNumber, &l.ShipperID, &l.ConsigneeID,
		&pickup, &actualPickup, &delivery, &actualDelivery,
		&l.FreightRate.Cents, &status, &l.Cancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Load{}, core.ErrNotFound
		}
		return core.Load{}, err
	}
	l.Status = core.LoadStatus(status)
	if l.PickupDate, err = parseTime(pickup); err != nil {
		return core.Load{}, err
	}
	if l.DeliveryDate, err = parseTime(delivery); err != nil {
		return core.Load{}, err
	}
	if l.ActualPickupTime, err = parseTimePtr(actualPickup); err != nil {
		return core.Load{}, err
	}
	if l.ActualDeliveryTime, err = parseTimePtr(actualDelivery); err != nil {
		return core.Load{}, err
	}
	return l, nil
}

// GetLoads returns every load ordered by pickup date.
func (r *SQLiteRepository) GetLoads(ctx context.Context) ([]core.Load, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+loadColumns+` FROM loads ORDER BY pickup_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var loads []core.Load
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loads: %w", err)
	}
	return loads, nil
}

func (r *SQLiteRepository) GetLoad(ctx context.Context, id int64) (core.Load, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loadColumns+` FROM loads WHERE id = ?`, id)
	l, err := scanLoad(row)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Load{}, core.ErrNotFound
		}
		return core.Load{}, fmt.Errorf("get load %d: %w", id, err)
	}
	return l, nil
}

// SaveLoad inserts when ID is zero, otherwise updates. On insert the
// generated id is written back into the load.
func (r *SQLiteRepository) SaveLoad(ctx context.Context, l *core.Load) error {
	if l.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO loads (load_number, shipper_id, consignee_id,
				pickup_date, actual_pickup_time, delivery_date,
				actual_delivery_time, freight_rate_cents, status, cancelled)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.LoadNumber, l.ShipperID, l.ConsigneeID,
			fmtTime(l.PickupDate), fmtTimePtr(l.ActualPickupTime),
			fmtTime(l.DeliveryDate), fmtTimePtr(l.ActualDeliveryTime),
			l.FreightRate.Cents, string(l.Status), l.Cancelled)
		if err != nil {
			return fmt.Errorf("insert load: %w", err)
		}
		l.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert load id: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE loads SET load_number = ?, shipper_id = ?, consignee_id = ?,
			pickup_date = ?, actual_pickup_time = ?, delivery_date = ?,
			actual_delivery_time = ?, freight_rate_cents = ?, status = ?,
			cancelled = ?
		WHERE id = ?`,
		l.LoadNumber, l.ShipperID, l.ConsigneeID,
		fmtTime(l.PickupDate), fmtTimePtr(l.ActualPickupTime),
		fmtTime(l.DeliveryDate), fmtTimePtr(l.ActualDeliveryTime),
		l.FreightRate.Cents, string(l.Status), l.Cancelled, l.ID)
	if err != nil {
		return fmt.Errorf("update load %d: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update load %d: %w", l.ID, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteLoad hard-deletes a row. The lifecycle uses soft-cancel; this exists
// for the import replace path only.
func (r *SQLiteRepository) DeleteLoad(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM loads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete load %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const expenseColumns = `id, load_id, category, amount_cents, expense_date,
	description, receipt_image_path, version`

func scanExpense(s scanner) (core.ExpenseRecord, error) {
	var (
		e    core.ExpenseRecord
		date string
	)
	err := s.Scan(&e.ID, &e.LoadID, &e.Category, &e.Amount.Cents, &date,
		&e.Description, &e.ReceiptImagePath, &e.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ExpenseRecord{}, core.ErrNotFound
		}
		return core.ExpenseRecord{}, err
	}
	if e.Date, err = parseTime(date); err != nil {
		return core.ExpenseRecord{}, err
	}
	return e, nil
}

// GetExpensesForLoad returns the flat expense records for one load, or every
// record when loadID is zero, ordered by expense date.
func (r *SQLiteRepository) GetExpensesForLoad(ctx context.Context, loadID int64) ([]core.ExpenseRecord, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY expense_date, id`
	args := []any{}
	if loadID != 0 {
		q = `SELECT ` + expenseColumns + ` FROM expenses WHERE load_id = ? ORDER BY expense_date, id`
		args = append(args, loadID)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var recs []core.ExpenseRecord
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		recs = append(recs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return recs, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ExpenseRecord{}, core.ErrNotFound
		}
		return core.ExpenseRecord{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// SaveExpense inserts or updates a record. Every save bumps the version so
// the ledger worker can discard stale sync messages.
func (r *SQLiteRepository) SaveExpense(ctx context.Context, e *core.ExpenseRecord) error {
	if e.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO expenses (load_id, category, amount_cents,
				expense_date, description, receipt_image_path, version)
			VALUES (?, ?, ?, ?, ?, ?, 1)`,
			e.LoadID, e.Category, e.Amount.Cents, fmtTime(e.Date),
			e.Description, e.ReceiptImagePath)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		e.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert expense id: %w", err)
		}
		e.Version = 1
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET load_id = ?, category = ?, amount_cents = ?,
			expense_date = ?, description = ?, receipt_image_path = ?,
			version = version + 1
		WHERE id = ?`,
		e.LoadID, e.Category, e.Amount.Cents, fmtTime(e.Date),
		e.Description, e.ReceiptImagePath, e.ID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT version FROM expenses WHERE id = ?`, e.ID)
	if err := row.Scan(&e.Version); err != nil {
		return fmt.Errorf("read expense version %d: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const companyColumns = `id, name, address_line_one, address_line_two, city,
	state, zip_code, country, phone_number`

func scanCompany(s scanner) (core.Company, error) {
	var c core.Company
	err := s.Scan(&c.ID, &c.Name, &c.AddressLineOne, &c.AddressLineTwo,
		&c.City, &c.State, &c.ZipCode, &c.Country, &c.PhoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Company{}, core.ErrNotFound
		}
		return core.Company{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) GetCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (r *SQLiteRepository) GetCompany(ctx context.Context, id int64) (core.Company, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Company{}, core.ErrNotFound
		}
		return core.Company{}, fmt.Errorf("get company %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) SaveCompany(ctx context.Context, c *core.Company) error {
	if c.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO companies (name, address_line_one, address_line_two,
				city, state, zip_code, country, phone_number)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.AddressLineOne, c.AddressLineTwo, c.City, c.State,
			c.ZipCode, c.Country, c.PhoneNumber)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE") {
				return fmt.Errorf("company %q already exists: %w", c.Name, core.ErrValidation)
			}
			return fmt.Errorf("insert company: %w", err)
		}
		c.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert company id: %w", err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE companies SET name = ?, address_line_one = ?,
			address_line_two = ?, city = ?, state = ?, zip_code = ?,
			country = ?, phone_number = ?
		WHERE id = ?`,
		c.Name, c.AddressLineOne, c.AddressLineTwo, c.City, c.State,
		c.ZipCode, c.Country, c.PhoneNumber, c.ID)
	if err != nil {
		return fmt.Errorf("update company %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteCompany(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete company %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetUserProfile returns the singleton profile row.
// Returns core.ErrNotFound when it has never been saved.
func (r *SQLiteRepository) GetUserProfile(ctx context.Context) (core.UserProfile, error) {
	var p core.UserProfile
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_name, user_phone_number, user_email, company_name,
			company_address_line_one, company_address_line_two, company_city,
			company_state, company_zip_code, company_country,
			company_phone_number
		FROM user_profile WHERE id = ?`, core.ProfileID)
	err := row.Scan(&p.ID, &p.UserName, &p.UserPhoneNumber, &p.UserEmail,
		&p.CompanyName, &p.CompanyAddressLineOne, &p.CompanyAddressLineTwo,
		&p.CompanyCity, &p.CompanyState, &p.CompanyZipCode,
		&p.CompanyCountry, &p.CompanyPhoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.UserProfile{}, core.ErrNotFound
		}
		return core.UserProfile{}, fmt.Errorf("get user profile: %w", err)
	}
	return p, nil
}

// SaveUserProfile upserts the singleton profile row at the fixed id.
func (r *SQLiteRepository) SaveUserProfile(ctx context.Context, p *core.UserProfile) error {
	p.ID = core.ProfileID
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profile (id, user_name, user_phone_number,
			user_email, company_name, company_address_line_one,
			company_address_line_two, company_city, company_state,
			company_zip_code, company_country, company_phone_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_name = excluded.user_name,
			user_phone_number = excluded.user_phone_number,
			user_email = excluded.user_email,
			company_name = excluded.company_name,
			company_address_line_one = excluded.company_address_line_one,
			company_address_line_two = excluded.company_address_line_two,
			company_city = excluded.company_city,
			company_state = excluded.company_state,
			company_zip_code = excluded.company_zip_code,
			company_country = excluded.company_country,
			company_phone_number = excluded.company_phone_number`,
		p.ID, p.UserName, p.UserPhoneNumber, p.UserEmail, p.CompanyName,
		p.CompanyAddressLineOne, p.CompanyAddressLineTwo, p.CompanyCity,
		p.CompanyState, p.CompanyZipCode, p.CompanyCountry,
		p.CompanyPhoneNumber)
	if err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}

// Purge removes every row from every table. Used by the import replace path.
func (r *SQLiteRepository) Purge(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"expenses", "loads", "companies", "user_profile"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit purge: %w", err)
	}
	return nil
}
