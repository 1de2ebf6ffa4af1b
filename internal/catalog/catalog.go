// Package catalog exports the placed register map and the symbol frames of a
// project into a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/drewr95/pm/internal/logger"
	"github.com/drewr95/pm/internal/registers"
	"github.com/drewr95/pm/internal/symfile"
)

const schema = `
CREATE TABLE registers (
	address        INTEGER NOT NULL,
	size           INTEGER NOT NULL,
	type           TEXT NOT NULL,
	name           TEXT NOT NULL,
	units          TEXT NOT NULL,
	parameter_uuid TEXT NOT NULL,
	node_uuid      TEXT NOT NULL,
	block          TEXT NOT NULL,
	repeat         INTEGER NOT NULL
);
CREATE TABLE frames (
	id          INTEGER PRIMARY KEY,
	section     TEXT NOT NULL,
	name        TEXT NOT NULL,
	identifier  INTEGER NOT NULL,
	extended    INTEGER NOT NULL,
	dlc         INTEGER NOT NULL,
	cycle_time  TEXT,
	mux_name    TEXT,
	mux_start   INTEGER,
	mux_length  INTEGER,
	mux_value   INTEGER
);
CREATE TABLE signals (
	frame_id INTEGER NOT NULL REFERENCES frames(id),
	name     TEXT NOT NULL,
	signed   INTEGER NOT NULL,
	start    INTEGER NOT NULL,
	length   INTEGER NOT NULL,
	factor   TEXT
);
`

var sections = []symfile.Section{symfile.Send, symfile.Receive, symfile.SendReceive}

// Open opens the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	return db, nil
}

// ExportFile replaces the database at path with a fresh export.
func ExportFile(ctx context.Context, path string, regs []registers.Register, doc *symfile.Document) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove old catalog: %w", err)
	}
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Printf("writing catalog: %s", path)
	return Export(ctx, db, regs, doc)
}

// Export creates the catalog tables in db and fills them in one transaction.
// doc may be nil.
func Export(ctx context.Context, db *sql.DB, regs []registers.Register, doc *symfile.Document) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	if err := insertRegisters(ctx, tx, regs); err != nil {
		return err
	}
	frames := 0
	if doc != nil {
		if frames, err = insertFrames(ctx, tx, doc); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Printf("catalog: %d registers, %d frames", len(regs), frames)
	return nil
}

func insertRegisters(ctx context.Context, tx *sql.Tx, regs []registers.Register) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO registers
		(address, size, type, name, units, parameter_uuid, node_uuid, block, repeat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range regs {
		node := ""
		if r.Node != nil {
			node = r.Node.UUID.String()
		}
		if _, err := stmt.ExecContext(ctx, r.Offset, r.Size, r.Type, r.Name, r.Units,
			r.ParameterUUID.String(), node, r.Block, r.Repeat); err != nil {
			return fmt.Errorf("register %q: %w", r.Name, err)
		}
	}
	return nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, doc *symfile.Document) (int, error) {
	frameStmt, err := tx.PrepareContext(ctx, `INSERT INTO frames
		(section, name, identifier, extended, dlc, cycle_time, mux_name, mux_start, mux_length, mux_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer frameStmt.Close()
	signalStmt, err := tx.PrepareContext(ctx, `INSERT INTO signals
		(frame_id, name, signed, start, length, factor) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer signalStmt.Close()

	count := 0
	for _, section := range sections {
		for _, f := range doc.Sections[section] {
			var muxName, muxStart, muxLength, muxValue any
			if f.Mux != nil {
				muxName, muxStart, muxLength, muxValue = f.Mux.Name, f.Mux.Start, f.Mux.Length, f.Mux.Value
			}
			res, err := frameStmt.ExecContext(ctx, string(section), f.Name, int64(f.ID), f.Extended, f.DLC,
				nullable(f.CycleTime), muxName, muxStart, muxLength, muxValue)
			if err != nil {
				return 0, fmt.Errorf("frame %q: %w", f.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return 0, err
			}
			for _, v := range f.Vars {
				if _, err := signalStmt.ExecContext(ctx, id, v.Name, v.Signed, v.Start, v.Length, nullable(v.Factor)); err != nil {
					return 0, fmt.Errorf("signal %q of frame %q: %w", v.Name, f.Name, err)
				}
			}
			count++
		}
	}
	return count, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
