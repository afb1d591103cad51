// Package storage archives analysis runs and their averaged spectra in a
// SQLite database, so that runs over different windows and configurations
// can be compared later without reprocessing the raw files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
)

// Store handles database operations. Connections are opened lazily; the
// write connection initializes the schema on first use.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store over the given database file. The file is
// created on the first write.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// SaveRun archives the request, reconciled range and file accounting of
// one pipeline result and returns the new run's ID.
func (s *Store) SaveRun(ctx context.Context, mode RunMode, result *rfi.Result, threshold float64) (runID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertRunSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	sel := result.Selection
	res, err := stmt.ExecContext(ctx,
		string(mode),
		sel.Files[0].Site,
		string(sel.Window.Polarisation),
		int(sel.Window.Azimuth),
		int(sel.Window.Band),
		sel.Window.Start.UTC(),
		sel.Window.End.UTC(),
		sel.ActualStart.UTC(),
		sel.ActualEnd.UTC(),
		threshold,
		len(sel.Files),
		len(result.Survivors),
		len(result.Flagged),
		len(result.Unreadable))
	if err != nil {
		err = fmt.Errorf("inserting run: %w", err)
		return
	}

	runID, err = res.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting run ID: %w", err)
	}
	return
}

// SaveAverage stores an averaged spectrum against a run in a single
// transaction.
func (s *Store) SaveAverage(ctx context.Context, runID int64, avg *rfi.AveragePower) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.PrepareContext(ctx, insertAverageSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for i, freq := range avg.Frequencies {
		if _, err = stmt.ExecContext(ctx, runID, freq, avg.Powers[i]); err != nil {
			return fmt.Errorf("inserting average point: %w", err)
		}
	}

	return tx.Commit()
}

// Runs returns all archived runs ordered by creation time.
func (s *Store) Runs(ctx context.Context) (runs []Run, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		err = fmt.Errorf("querying runs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var run Run
		var mode string
		if err = rows.Scan(&run.ID, &run.CreatedAt, &mode, &run.Site, &run.Polarisation,
			&run.Azimuth, &run.Band, &run.RequestedStart, &run.RequestedEnd,
			&run.ActualStart, &run.ActualEnd, &run.FlagThreshold,
			&run.MatchedFiles, &run.ValidFiles, &run.FlaggedFiles, &run.UnreadableFiles); err != nil {
			err = fmt.Errorf("scanning run: %w", err)
			return
		}
		run.Mode = RunMode(mode)
		runs = append(runs, run)
	}
	err = rows.Err()
	return
}

// AverageSpectrum loads the archived averaged spectrum of a run.
func (s *Store) AverageSpectrum(ctx context.Context, runID int64) (avg *rfi.AveragePower, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectAverageSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	rows, err := stmt.QueryContext(ctx, runID)
	if err != nil {
		err = fmt.Errorf("querying average spectrum: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	result := rfi.AveragePower{}
	for rows.Next() {
		var freq, power float64
		if err = rows.Scan(&freq, &power); err != nil {
			err = fmt.Errorf("scanning average point: %w", err)
			return
		}
		result.Frequencies = append(result.Frequencies, freq)
		result.Powers = append(result.Powers, power)
	}
	if err = rows.Err(); err != nil {
		return
	}
	if len(result.Frequencies) == 0 {
		err = fmt.Errorf("no archived spectrum for run %d", runID)
		return
	}

	return &result, nil
}

// Close releases both database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				s.closeErr = err
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}
