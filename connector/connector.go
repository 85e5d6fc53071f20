// Package connector defines the contract between the pipeline executor and a
// database: run one parameterized statement, return its rows.
package connector

import (
	"context"

	"github.com/satishbabariya/prisma-edge/model"
)

// Options are per-statement execution flags.
type Options struct {
	// SilentErrors marks a statement whose failure the caller will
	// suppress. Connectors should not report it as an error.
	SilentErrors bool
}

// Column describes one result column.
type Column struct {
	Name string
	// JSON columns arrive already decoded into map[string]any, []any or a
	// scalar; NULL stays nil.
	JSON bool
}

// Result is the response to one statement.
type Result struct {
	Columns      []Column
	Rows         [][]any
	RowsAffected int64
	LastInsertID int64
}

// Connector executes one statement at a time.
type Connector interface {
	Execute(ctx context.Context, sql string, params []any, opts Options) (*Result, error)
}

// Session is a connector pinned to one connection until Close.
type Session interface {
	Connector
	Close() error
}

// SessionOpener is implemented by connectors that can pin a connection, so
// connection-scoped functions such as LAST_INSERT_ID() see earlier
// statements of the same pipeline.
type SessionOpener interface {
	Session(ctx context.Context) (Session, error)
}

// Empty is the decoded form of "no rows" for a cardinality.
func Empty(card model.Cardinality) any {
	if card == model.Many {
		return []any{}
	}
	return nil
}

// FormatOutput decodes a result:
//
//   - a statement without result columns yields RowsAffected;
//   - a single JSON column yields its value from the first row, or Empty
//     when there is no row or the value is NULL;
//   - otherwise rows become maps keyed by column name: the first row (or
//     nil) for One, all rows for Many.
func FormatOutput(res *Result, card model.Cardinality) any {
	if res == nil {
		return Empty(card)
	}
	if len(res.Columns) == 0 {
		return res.RowsAffected
	}
	if len(res.Columns) == 1 && res.Columns[0].JSON {
		if len(res.Rows) == 0 || len(res.Rows[0]) == 0 || res.Rows[0][0] == nil {
			return Empty(card)
		}
		return res.Rows[0][0]
	}

	rows := make([]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		row := make(map[string]any, len(res.Columns))
		for i, c := range res.Columns {
			if i < len(r) {
				row[c.Name] = r[i]
			}
		}
		rows = append(rows, row)
	}
	if card == model.Many {
		return rows
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
