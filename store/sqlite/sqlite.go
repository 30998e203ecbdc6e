/*
Package sqlite provides a SQLite-backed implementation of the billing stores.

PURPOSE:
  Implements billing.InputSource and billing.ResultStore using SQLite.
  Staged inputs are kept as the factory's JSON document; runs are kept
  relationally, one row per billed element per sub-period, ready for
  invoice and transaction reporting.

INTERFACES IMPLEMENTED:
  billing.InputSource: staged charge version years
  billing.ResultStore: billing runs

KEY TABLES:
  charge_version_inputs: one JSON document per charge version + year
  billing_runs:          one row per run
  billing_run_lines:     one row per element per sub-period

QUANTITIES:
  Decimals are stored as TEXT and read back exactly. A NULL actual
  quantity means the returns could not be matched (see the error column).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is limited to
  a single connection so every query sees the same schema.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/tpt.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := billing.NewService(engine, store, store, m, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - billing/service.go: interface definitions
  - factory/input.go: input JSON format
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/factory"
	"github.com/DEFRA/water-abstraction-service-sub002/generic"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Store implements the billing storage interfaces using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.InputFactory
}

// Compile-time interface checks
var (
	_ billing.InputSource = (*Store)(nil)
	_ billing.ResultStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, factory: factory.NewInputFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Staged inputs, replaced on re-staging
	CREATE TABLE IF NOT EXISTS charge_version_inputs (
		charge_version_id TEXT NOT NULL,
		financial_year INTEGER NOT NULL,
		licence_ref TEXT,
		input_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (charge_version_id, financial_year)
	);

	-- Billing runs
	CREATE TABLE IF NOT EXISTS billing_runs (
		id TEXT PRIMARY KEY,
		charge_version_id TEXT NOT NULL,
		licence_ref TEXT,
		financial_year INTEGER NOT NULL,
		returns_error TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_billing_runs_charge_version
		ON billing_runs(charge_version_id, financial_year);

	-- One row per billed element per sub-period
	CREATE TABLE IF NOT EXISTS billing_run_lines (
		run_id TEXT NOT NULL REFERENCES billing_runs(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		licence_holder_company_id TEXT,
		invoice_account_id TEXT,
		invoice_account_number TEXT,
		agreements_json TEXT,
		element_id TEXT NOT NULL,
		description TEXT,
		purpose TEXT NOT NULL,
		source TEXT,
		season TEXT,
		loss TEXT,
		total_days INTEGER NOT NULL,
		billable_days INTEGER NOT NULL,
		authorised_quantity TEXT NOT NULL,
		billable_quantity TEXT,
		actual_quantity TEXT,
		error TEXT,
		PRIMARY KEY (run_id, line_no)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INPUTS
// =============================================================================

// SaveInput stages an input, replacing any earlier one for the same year.
func (s *Store) SaveInput(ctx context.Context, in billing.Input) error {
	if in.ChargeVersion == nil {
		return billing.ErrChargeVersionNotFound
	}
	data, err := s.factory.EncodeInput(in)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO charge_version_inputs (charge_version_id, financial_year, licence_ref, input_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(charge_version_id, financial_year) DO UPDATE SET
			licence_ref = excluded.licence_ref,
			input_json = excluded.input_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		in.ChargeVersion.ID,
		in.FinancialYear,
		nullString(in.ChargeVersion.LicenceRef),
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save input: %w", err)
	}
	return nil
}

// LoadInput returns the staged input for a charge version year.
func (s *Store) LoadInput(ctx context.Context, chargeVersionID string, financialYear int) (billing.Input, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT input_json FROM charge_version_inputs WHERE charge_version_id = ? AND financial_year = ?`,
		chargeVersionID, financialYear,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Input{}, billing.ErrChargeVersionNotFound
	}
	if err != nil {
		return billing.Input{}, fmt.Errorf("failed to load input: %w", err)
	}

	in, err := s.factory.ParseInput([]byte(data))
	if err != nil {
		return billing.Input{}, fmt.Errorf("stored input for %s/%d: %w", chargeVersionID, financialYear, err)
	}
	return in, nil
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun stores a run and its lines atomically.
func (s *Store) SaveRun(ctx context.Context, run billing.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO billing_runs (id, charge_version_id, licence_ref, financial_year, returns_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ChargeVersionID,
		nullString(run.LicenceRef),
		run.FinancialYear,
		nullString(string(run.ReturnsError)),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	lineQuery := `
		INSERT INTO billing_run_lines
		(run_id, line_no, period_start, period_end, licence_holder_company_id, invoice_account_id,
		 invoice_account_number, agreements_json, element_id, description, purpose, source, season, loss,
		 total_days, billable_days, authorised_quantity, billable_quantity, actual_quantity, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, l := range run.Lines {
		agreementsJSON, _ := json.Marshal(l.Agreements)
		_, err := sqlTx.ExecContext(ctx, lineQuery,
			run.ID, i,
			l.Period.Start.String(), l.Period.End.String(),
			nullString(l.LicenceHolderCompanyID),
			nullString(l.InvoiceAccountID),
			nullString(l.InvoiceAccountNumber),
			string(agreementsJSON),
			l.ElementID,
			nullString(l.Description),
			l.Purpose,
			string(l.Source), string(l.Season), string(l.Loss),
			l.TotalDays, l.BillableDays,
			l.AuthorisedQuantity.String(),
			nullDecimal(l.BillableQuantity),
			nullDecimal(l.ActualQuantity),
			nullString(string(l.Error)),
		)
		if err != nil {
			return fmt.Errorf("failed to save run line %d: %w", i, err)
		}
	}

	return sqlTx.Commit()
}

// GetRun returns a stored run with its lines in order.
func (s *Store) GetRun(ctx context.Context, id string) (billing.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run billing.Run
	var licenceRef, returnsError sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, charge_version_id, licence_ref, financial_year, returns_error, created_at
		FROM billing_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.ChargeVersionID, &licenceRef, &run.FinancialYear, &returnsError, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Run{}, billing.ErrRunNotFound
	}
	if err != nil {
		return billing.Run{}, fmt.Errorf("failed to load run: %w", err)
	}
	run.LicenceRef = licenceRef.String
	run.ReturnsError = twopart.ErrorCode(returnsError.String)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT period_start, period_end, licence_holder_company_id, invoice_account_id,
			invoice_account_number, agreements_json, element_id, description, purpose, source, season, loss,
			total_days, billable_days, authorised_quantity, billable_quantity, actual_quantity, error
		FROM billing_run_lines WHERE run_id = ? ORDER BY line_no`, id)
	if err != nil {
		return billing.Run{}, fmt.Errorf("failed to load run lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanRunLine(rows)
		if err != nil {
			return billing.Run{}, err
		}
		run.Lines = append(run.Lines, line)
	}
	return run, rows.Err()
}

func scanRunLine(rows *sql.Rows) (billing.RunLine, error) {
	var l billing.RunLine
	var periodStart, periodEnd, authorised string
	var holder, account, accountNumber, agreementsJSON, description, source, season, loss sql.NullString
	var billable, actual, errCode sql.NullString

	if err := rows.Scan(
		&periodStart, &periodEnd, &holder, &account, &accountNumber, &agreementsJSON,
		&l.ElementID, &description, &l.Purpose, &source, &season, &loss,
		&l.TotalDays, &l.BillableDays, &authorised, &billable, &actual, &errCode,
	); err != nil {
		return billing.RunLine{}, fmt.Errorf("failed to scan run line: %w", err)
	}

	var err error
	if l.Period, err = parsePeriod(periodStart, periodEnd); err != nil {
		return billing.RunLine{}, err
	}
	if l.AuthorisedQuantity, err = decimal.NewFromString(authorised); err != nil {
		return billing.RunLine{}, fmt.Errorf("failed to parse authorised quantity: %w", err)
	}
	if l.BillableQuantity, err = parseNullDecimal(billable); err != nil {
		return billing.RunLine{}, err
	}
	if l.ActualQuantity, err = parseNullDecimal(actual); err != nil {
		return billing.RunLine{}, err
	}
	if agreementsJSON.Valid && agreementsJSON.String != "null" {
		if err := json.Unmarshal([]byte(agreementsJSON.String), &l.Agreements); err != nil {
			return billing.RunLine{}, fmt.Errorf("failed to parse agreements: %w", err)
		}
	}

	l.LicenceHolderCompanyID = holder.String
	l.InvoiceAccountID = account.String
	l.InvoiceAccountNumber = accountNumber.String
	l.Description = description.String
	l.Source = twopart.Source(source.String)
	l.Season = twopart.Season(season.String)
	l.Loss = twopart.Loss(loss.String)
	l.Error = twopart.ErrorCode(errCode.String)
	return l, nil
}

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"billing_run_lines", "billing_runs", "charge_version_inputs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to parse quantity %q: %w", s.String, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	if end == "" {
		return generic.Period{Start: s}, nil
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.Period{Start: s, End: e}, nil
}
