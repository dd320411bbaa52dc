// Package store keeps a SQLite ledger of every batch, its truth table and
// its match records.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/yyyoichi/completeness/internal/catalog"
	"github.com/yyyoichi/completeness/internal/match"
	"github.com/yyyoichi/completeness/internal/truth"
)

type DB struct {
	db *sql.DB
}

// Batch identifies one rendered image.
type Batch struct {
	ID         string
	Index      int
	SizeArcsec float64
	Magnitude  float64
	Repeat     int
	ImagePath  string
	ImgSize    int
}

// Outcome is the match count of one injected source.
type Outcome struct {
	BatchID    string
	SizeArcsec float64
	Magnitude  float64
	Index      int
	Matches    int
}

// Open opens or creates the ledger.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// batches may finish concurrently; one connection serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveBatch stores a batch with its sources and records in one
// transaction. A batch saved again replaces the earlier rows.
func (d *DB) SaveBatch(ctx context.Context, b Batch, records []match.Record) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM batches WHERE batch_id = ?", b.ID); err != nil {
		return fmt.Errorf("failed to replace batch %s: %w", b.ID, err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (batch_id, batch_index, size_arcsec, magnitude, repeat, image_path, img_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Index, b.SizeArcsec, b.Magnitude, b.Repeat, b.ImagePath, b.ImgSize,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch %s: %w", b.ID, err)
	}
	batchRef, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, rec := range records {
		sourceRef, err := insertSource(ctx, tx, batchRef, rec.Source)
		if err != nil {
			return err
		}
		if err = insertMatch(ctx, tx, sourceRef, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertSource(ctx context.Context, tx *sql.Tx, batchRef int64, s truth.Source) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sources (batch_ref, idx, x, y, flux, magnitude, size_arcsec, size_px, fwhm_px)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchRef, s.Index, s.X, s.Y, s.Flux, s.Magnitude, s.SizeArcsec, s.SizePx, s.FWHM,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %d: %w", s.Index, err)
	}
	return res.LastInsertId()
}

func insertMatch(ctx context.Context, tx *sql.Tx, sourceRef int64, rec match.Record) error {
	var (
		id                            sql.NullInt64
		x, y, dist, fwhm, mag, radius sql.NullFloat64
		outOfRange                    sql.NullBool
	)
	if c := rec.Candidate; c != nil {
		id = sql.NullInt64{Int64: int64(c.ID), Valid: true}
		x = sql.NullFloat64{Float64: c.X, Valid: true}
		y = sql.NullFloat64{Float64: c.Y, Valid: true}
		dist = sql.NullFloat64{Float64: rec.Distance, Valid: true}
		fwhm = sql.NullFloat64{Float64: c.FWHM, Valid: true}
		mag = sql.NullFloat64{Float64: c.MagAuto, Valid: true}
		radius = sql.NullFloat64{Float64: c.FluxRadius, Valid: true}
		outOfRange = sql.NullBool{Bool: rec.OutOfRange, Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO matches (source_ref, detection_id, x, y, distance, fwhm, mag_auto, flux_radius, out_of_range, matches)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourceRef, id, x, y, dist, fwhm, mag, radius, outOfRange, rec.Matches,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match of source %d: %w", rec.Source.Index, err)
	}
	return nil
}

// Outcomes lists every recorded source outcome ordered by magnitude, size,
// batch and source index.
func (d *DB) Outcomes(ctx context.Context) ([]Outcome, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT batch_id, size_arcsec, magnitude, idx, matches FROM outcomes
		 ORDER BY magnitude, size_arcsec, batch_id, idx`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.BatchID, &o.SizeArcsec, &o.Magnitude, &o.Index, &o.Matches); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Records returns the stored match records of one batch in source order.
func (d *DB) Records(ctx context.Context, batchID string) ([]match.Record, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT s.idx, s.x, s.y, s.flux, s.magnitude, s.size_arcsec, s.size_px, s.fwhm_px,
		        m.detection_id, m.x, m.y, m.distance, m.fwhm, m.mag_auto, m.flux_radius, m.out_of_range, m.matches
		 FROM matches m
		 JOIN sources s ON m.source_ref = s.id
		 JOIN batches b ON s.batch_ref = b.id
		 WHERE b.batch_id = ?
		 ORDER BY s.idx`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []match.Record
	for rows.Next() {
		var (
			rec                           match.Record
			s                             = &rec.Source
			id                            sql.NullInt64
			x, y, dist, fwhm, mag, radius sql.NullFloat64
			outOfRange                    sql.NullBool
		)
		if err := rows.Scan(&s.Index, &s.X, &s.Y, &s.Flux, &s.Magnitude, &s.SizeArcsec, &s.SizePx, &s.FWHM,
			&id, &x, &y, &dist, &fwhm, &mag, &radius, &outOfRange, &rec.Matches); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if id.Valid {
			rec.Candidate = &catalog.Detection{
				ID: int(id.Int64), X: x.Float64, Y: y.Float64,
				FWHM: fwhm.Float64, FluxRadius: radius.Float64, MagAuto: mag.Float64,
			}
			rec.Distance = dist.Float64
			rec.OutOfRange = outOfRange.Bool
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
