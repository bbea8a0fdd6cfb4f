package repo

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/khayai/repairbot/internal/domain"
)

// Match is an equality predicate over column names.
type Match map[string]any

// Table is a typed handle on one logical table. It carries the table name,
// its stable column mapping and the column that defines row recency.
//
// Every read goes to the database; nothing is cached between calls.
type Table[T any] struct {
	db      *gorm.DB
	name    string
	columns []domain.Column
	order   string
	schema  *schema.Schema
}

// TableOption customizes a Table.
type TableOption func(*tableOptions)

type tableOptions struct {
	order string
}

// WithRecency sets the column used to decide which row is the newest
// (defaults to the primary key).
func WithRecency(col string) TableOption {
	return func(o *tableOptions) { o.order = col }
}

var schemaCache sync.Map

// NewTable returns a handle without touching the schema.
func NewTable[T any](db *gorm.DB, opts ...TableOption) *Table[T] {
	var o tableOptions
	for _, fn := range opts {
		fn(&o)
	}
	sch, err := schema.Parse(new(T), &schemaCache, db.NamingStrategy)
	if err != nil {
		// Models are static; a parse failure is a programming error.
		panic(err)
	}
	order := o.order
	if order == "" && sch.PrioritizedPrimaryField != nil {
		order = sch.PrioritizedPrimaryField.DBName
	}
	return &Table[T]{
		db:      db,
		name:    sch.Table,
		columns: domain.ColumnsByTable[sch.Table],
		order:   order,
		schema:  sch,
	}
}

// GetOrCreateTable returns a handle after making sure the table exists with
// all mapped columns. Missing columns are added; existing ones are never
// dropped. If the regular migration fails the column repair is attempted
// column by column.
func GetOrCreateTable[T any](ctx context.Context, db *gorm.DB, opts ...TableOption) (*Table[T], error) {
	t := NewTable[T](db, opts...)
	if err := ensureTable(ctx, db, new(T)); err != nil {
		return nil, err
	}
	return t, nil
}

func ensureTable(ctx context.Context, db *gorm.DB, model any) error {
	tx := db.WithContext(ctx)
	err := tx.AutoMigrate(model)
	if err == nil {
		return nil
	}
	sch, perr := schema.Parse(model, &schemaCache, db.NamingStrategy)
	if perr != nil {
		return wrap("migrate", "?", err)
	}
	log.Warn().Err(err).Str("table", sch.Table).Msg("auto-migrate failed; repairing columns")

	m := tx.Migrator()
	if !m.HasTable(model) {
		return wrap("migrate", sch.Table, err)
	}
	for _, f := range sch.Fields {
		if f.DBName == "" || m.HasColumn(model, f.DBName) {
			continue
		}
		if aerr := m.AddColumn(model, f.DBName); aerr != nil {
			return wrap("add column "+f.DBName, sch.Table, aerr)
		}
	}
	return nil
}

// Name returns the database table name.
func (t *Table[T]) Name() string { return t.name }

// Columns returns the stable column mapping.
func (t *Table[T]) Columns() []domain.Column { return t.columns }

// Query starts a context-bound query on the table's model.
func (t *Table[T]) Query(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Model(new(T))
}

// Rows returns every row matching the optional scopes, oldest first.
func (t *Table[T]) Rows(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var out []T
	err := t.Query(ctx).Scopes(scopes...).Order(t.order + " asc").Find(&out).Error
	if err != nil {
		return nil, wrap("rows", t.name, err)
	}
	return out, nil
}

// Find returns the oldest row matching m, or ErrNotFound.
func (t *Table[T]) Find(ctx context.Context, m Match) (*T, error) {
	return t.first(ctx, m, "asc")
}

// FindLast returns the newest row matching m, or ErrNotFound. When duplicate
// rows exist for a key, this is the one treated as canonical.
func (t *Table[T]) FindLast(ctx context.Context, m Match) (*T, error) {
	return t.first(ctx, m, "desc")
}

func (t *Table[T]) first(ctx context.Context, m Match, dir string) (*T, error) {
	var row T
	err := t.Query(ctx).Where(map[string]any(m)).Order(t.order + " " + dir).Limit(1).Take(&row).Error
	if err != nil {
		return nil, wrap("find", t.name, err)
	}
	return &row, nil
}

// Exists reports whether any row matches m.
func (t *Table[T]) Exists(ctx context.Context, m Match) (bool, error) {
	var n int64
	if err := t.Query(ctx).Where(map[string]any(m)).Limit(1).Count(&n).Error; err != nil {
		return false, wrap("exists", t.name, err)
	}
	return n > 0, nil
}

// Insert creates a new row.
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	return wrap("insert", t.name, t.db.WithContext(ctx).Create(row).Error)
}

// UpsertResult describes what an Upsert wrote.
type UpsertResult struct {
	Created bool
	Changed []string
}

// Upsert finds the newest row matching m and updates only the listed columns
// whose values differ from row. When nothing matches, row is inserted as is.
// An empty column list compares every mapped column.
func (t *Table[T]) Upsert(ctx context.Context, m Match, row *T, columns ...string) (UpsertResult, error) {
	var res UpsertResult
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		err := tx.Model(new(T)).Where(map[string]any(m)).Order(t.order + " desc").Limit(1).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			res.Created = true
			return tx.Create(row).Error
		case err != nil:
			return err
		}

		changes := t.diff(ctx, &existing, row, columns)
		if len(changes) == 0 {
			*row = existing
			return nil
		}
		cur := reflect.ValueOf(&existing).Elem()
		for col, v := range changes {
			res.Changed = append(res.Changed, col)
			if err := t.schema.LookUpField(col).Set(ctx, cur, v); err != nil {
				return err
			}
		}
		sort.Strings(res.Changed)
		if err := tx.Model(&existing).Updates(changes).Error; err != nil {
			return err
		}
		*row = existing
		return nil
	})
	if err != nil {
		return UpsertResult{}, wrap("upsert", t.name, err)
	}
	return res, nil
}

// UpdateChanged writes only those entries of fields whose value differs from
// the newest row matching m. It returns the columns actually written.
func (t *Table[T]) UpdateChanged(ctx context.Context, m Match, fields map[string]any) ([]string, error) {
	var written []string
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing T
		if err := tx.Model(new(T)).Where(map[string]any(m)).Order(t.order + " desc").Limit(1).Take(&existing).Error; err != nil {
			return err
		}
		cur := reflect.ValueOf(&existing).Elem()
		changes := map[string]any{}
		for col, v := range fields {
			f := t.schema.LookUpField(col)
			if f == nil {
				continue
			}
			old, _ := f.ValueOf(ctx, cur)
			if !reflect.DeepEqual(old, v) {
				changes[f.DBName] = v
				written = append(written, f.DBName)
			}
		}
		if len(changes) == 0 {
			return nil
		}
		sort.Strings(written)
		return tx.Model(&existing).Updates(changes).Error
	})
	if err != nil {
		return nil, wrap("update", t.name, err)
	}
	return written, nil
}

// DeleteWhere removes rows matching the given condition.
func (t *Table[T]) DeleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	res := t.db.WithContext(ctx).Where(query, args...).Delete(new(T))
	if res.Error != nil {
		return 0, wrap("delete", t.name, res.Error)
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) diff(ctx context.Context, existing, next *T, columns []string) map[string]any {
	if len(columns) == 0 {
		for _, c := range t.columns {
			columns = append(columns, c.Name)
		}
	}
	cur := reflect.ValueOf(existing).Elem()
	nv := reflect.ValueOf(next).Elem()
	changes := map[string]any{}
	for _, col := range columns {
		f := t.schema.LookUpField(col)
		if f == nil || f.PrimaryKey {
			continue
		}
		a, _ := f.ValueOf(ctx, cur)
		b, _ := f.ValueOf(ctx, nv)
		if !reflect.DeepEqual(a, b) {
			changes[f.DBName] = b
		}
	}
	return changes
}
