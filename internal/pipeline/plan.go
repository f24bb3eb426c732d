package pipeline

import "fmt"

// ManyToManySplit names one multi-valued column to peel off the working
// table into an entity table and a junction table.
type ManyToManySplit struct {
	// Column is the multi-valued column on the working table.
	Column string

	// EntityName is the destination entity table name. It may differ from
	// Column ("cast" becomes the "actor" table).
	EntityName string

	// Separator splits delimiter-encoded values; empty means the values are
	// already multi-valued.
	Separator string
}

// Plan describes how one wide dataset is normalized: which business key is
// replaced by a surrogate id, which columns split off as one-to-many
// entities, which as many-to-many entities with junctions, and how the
// surviving fact table is typed and shaped.
type Plan struct {
	Name string

	// BusinessKey is the source's row-unique key, dropped in favor of a
	// dense surrogate id. Empty keeps all source columns.
	BusinessKey string

	// FactTable is the destination name for the reduced working table.
	FactTable string

	// OneToMany lists categorical columns, split in order. Each becomes an
	// entity table named after the column.
	OneToMany []string

	// ManyToMany lists multi-valued columns, split in order after the
	// one-to-many targets. Each yields an entity table and a junction table
	// named "{FactTable}_{EntityName}".
	ManyToMany []ManyToManySplit

	// DateColumns and IntColumns are fact-table columns coerced after
	// splitting. Unparseable values become null.
	DateColumns []string
	IntColumns  []string

	// FinalColumns optionally projects and orders the fact table before
	// loading. Empty keeps every surviving column.
	FinalColumns []string
}

// Validate rejects plans with missing names or colliding destinations.
func (p Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name must not be empty")
	}
	if p.FactTable == "" {
		return fmt.Errorf("plan %q: fact table name must not be empty", p.Name)
	}

	seen := map[string]struct{}{p.FactTable: {}}
	claim := func(name string) error {
		if name == "" {
			return fmt.Errorf("plan %q: destination table name must not be empty", p.Name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("plan %q: destination table %q used more than once", p.Name, name)
		}
		seen[name] = struct{}{}
		return nil
	}

	for _, col := range p.OneToMany {
		if err := claim(col); err != nil {
			return err
		}
	}
	for _, m := range p.ManyToMany {
		if m.Column == "" {
			return fmt.Errorf("plan %q: many-to-many split has no column", p.Name)
		}
		if err := claim(m.EntityName); err != nil {
			return err
		}
		if err := claim(p.FactTable + "_" + m.EntityName); err != nil {
			return err
		}
	}
	return nil
}

// NetflixPlan is the built-in plan for the Kaggle netflix_titles dataset:
// eleven destination tables from one wide CSV.
func NetflixPlan() Plan {
	return Plan{
		Name:        "netflix_titles",
		BusinessKey: "show_id",
		FactTable:   "title",
		OneToMany:   []string{"type", "rating"},
		ManyToMany: []ManyToManySplit{
			{Column: "country", EntityName: "country", Separator: ", "},
			{Column: "director", EntityName: "director", Separator: ", "},
			{Column: "cast", EntityName: "actor", Separator: ", "},
			{Column: "listed_in", EntityName: "listed_in", Separator: ", "},
		},
		DateColumns: []string{"date_added"},
		IntColumns:  []string{"release_year"},
		FinalColumns: []string{
			"id", "type_id", "title", "date_added", "release_year",
			"rating_id", "duration", "description",
		},
	}
}
