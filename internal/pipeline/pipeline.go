// Package pipeline sequences a full ingestion: read the wide CSV, replace
// the business key with a dense surrogate id, peel off one-to-many and
// many-to-many relationships per the plan, coerce the surviving fact columns,
// and hand every resulting table to the sink.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/csvsource"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/logging"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/normalize"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/sink"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/table"
)

// Pipeline runs normalization plans against a sink.
type Pipeline struct {
	sink        sink.Sink
	maxFileSize int64
}

// New creates a pipeline writing to the given sink. maxFileSize <= 0 uses
// the csvsource default.
func New(s sink.Sink, maxFileSize int64) *Pipeline {
	return &Pipeline{sink: s, maxFileSize: maxFileSize}
}

// namedTable is a destination relation awaiting load.
type namedTable struct {
	name string
	tbl  *table.Table
	// pk names the primary-key column, empty for junction tables.
	pk string
}

// Run executes the plan against the CSV at csvPath. Any failure aborts the
// run; partially loaded destination tables are left for the next run's
// drop-and-recreate.
func (p *Pipeline) Run(ctx context.Context, csvPath string, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	ctx = logging.WithRunID(ctx, uuid.NewString())
	logger := logging.WithFields(ctx, "plan", plan.Name)

	working, err := csvsource.Read(csvPath, p.maxFileSize)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", csvPath, "rows", working.NumRows(), "columns", working.NumCols())

	working, err = p.reshape(working, plan)
	if err != nil {
		return err
	}

	var outputs []namedTable

	for _, col := range plan.OneToMany {
		child, parent, err := normalize.SplitWithForeignKey(working, col)
		if err != nil {
			return fmt.Errorf("one-to-many split on %q: %w", col, err)
		}
		logger.Info("one-to-many split", "column", col, "entities", parent.NumRows())
		working = child
		outputs = append(outputs, namedTable{name: col, tbl: parent, pk: normalize.IDColumn})
	}

	for _, m := range plan.ManyToMany {
		left, right, junction, err := normalize.SplitManyToMany(working, normalize.IDColumn, m.Column, m.Separator)
		if err != nil {
			return fmt.Errorf("many-to-many split on %q: %w", m.Column, err)
		}
		logger.Info("many-to-many split",
			"column", m.Column, "entity", m.EntityName,
			"entities", right.NumRows(), "junction_rows", junction.NumRows())
		working = left
		outputs = append(outputs,
			namedTable{name: m.EntityName, tbl: right, pk: normalize.IDColumn},
			namedTable{name: plan.FactTable + "_" + m.EntityName, tbl: junction})
	}

	working, err = p.coerce(working, plan)
	if err != nil {
		return err
	}
	if len(plan.FinalColumns) > 0 {
		working, err = working.Select(plan.FinalColumns...)
		if err != nil {
			return fmt.Errorf("fact table projection: %w", err)
		}
	}
	outputs = append([]namedTable{{name: plan.FactTable, tbl: working, pk: normalize.IDColumn}}, outputs...)

	return p.load(ctx, logger, outputs)
}

// reshape drops the business key and appends a dense surrogate id.
func (p *Pipeline) reshape(t *table.Table, plan Plan) (*table.Table, error) {
	if plan.BusinessKey != "" && t.HasColumn(plan.BusinessKey) {
		var err error
		t, err = t.DropColumn(plan.BusinessKey)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]table.Value, t.NumRows())
	for i := range ids {
		ids[i] = table.Int(int64(i + 1))
	}
	return t.AppendColumn(normalize.IDColumn, ids)
}

// coerce parses the plan's date and integer fact columns. Values that do not
// parse become null, matching the lenient loading of the source data.
func (p *Pipeline) coerce(t *table.Table, plan Plan) (*table.Table, error) {
	var err error
	for _, col := range plan.DateColumns {
		t, err = coerceColumn(t, col, func(s string) (table.Value, bool) {
			d, ok := ParseDate(s)
			return table.Date(d), ok
		})
		if err != nil {
			return nil, err
		}
	}
	for _, col := range plan.IntColumns {
		t, err = coerceColumn(t, col, func(s string) (table.Value, bool) {
			i, ok := ParseInt(s)
			return table.Int(i), ok
		})
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func coerceColumn(t *table.Table, name string, parse func(string) (table.Value, bool)) (*table.Table, error) {
	vals, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("coerce column %q: not found", name)
	}
	out := make([]table.Value, len(vals))
	for i, v := range vals {
		s, isString := v.AsString()
		if !isString {
			out[i] = v
			continue
		}
		parsed, ok := parse(s)
		if !ok {
			parsed = table.Null()
		}
		out[i] = parsed
	}
	return t.WithColumn(name, out)
}

// load creates, fills, and keys every destination relation.
func (p *Pipeline) load(ctx context.Context, logger *slog.Logger, outputs []namedTable) error {
	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load cancelled: %w", err)
		}
		if err := p.sink.CreateTable(ctx, out.name, out.tbl); err != nil {
			return err
		}
		if err := p.sink.Load(ctx, out.name, out.tbl); err != nil {
			return err
		}
		logger.Info("table loaded", "table", out.name, "rows", out.tbl.NumRows())
	}

	// Constraints go on last so bulk loads stay unchecked and fast.
	for _, out := range outputs {
		if out.pk == "" {
			continue
		}
		if err := p.sink.AddPrimaryKey(ctx, out.name, out.pk); err != nil {
			return err
		}
	}
	return nil
}
