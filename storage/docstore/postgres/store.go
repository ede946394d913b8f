// Package pgstore is a core.Store keeping every document as a JSONB row of a single documents table.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

const uniqueViolation = "23505"

type (
	row struct {
		ID   string `db:"id"`
		Data []byte `db:"data"`
	}

	Store struct {
		db     *sqlx.DB
		dsn    string
		logger core.Logger
		newID  func() string

		subsMu   sync.Mutex
		subs     map[*subscription]struct{}
		listener *pq.Listener
	}
)

var _ core.Store = (*Store)(nil)

// New returns a Store over db. dsn is used to open the LISTEN connection of subscriptions.
func New(db *sqlx.DB, dsn string, logger core.Logger) *Store {
	return &Store{
		db:     db,
		dsn:    dsn,
		logger: logger,
		newID:  uuid.NewString,
		subs:   make(map[*subscription]struct{}),
	}
}

// Close stops listening for changes. The database itself is left open.
func (s *Store) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	return errors.Wrap(err, "closing listener")
}

func encode(data interface{}) (string, error) {
	m, err := core.ToMap(data)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(m)
	return string(raw), errors.Wrap(err, "encoding document")
}

// where builds the condition of filters; args continue after the given ones.
func where(filters []core.Filter, args []interface{}) (string, []interface{}, error) {
	conds := []string{"collection = $1"}
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return "", nil, err
		}
		switch {
		case f.Op == core.OpIn && f.Field == core.FieldID:
			args = append(args, pq.Array(f.Values()))
			conds = append(conds, fmt.Sprintf("id = ANY($%d::text[])", len(args)))
		case f.Op == core.OpIn:
			args = append(args, f.Field, pq.Array(f.Values()))
			conds = append(conds, fmt.Sprintf("data->>$%d::text = ANY($%d::text[])", len(args)-1, len(args)))
		case f.Field == core.FieldID:
			args = append(args, fmt.Sprint(f.Value))
			conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
		default:
			val, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, errors.Wrap(err, "encoding filter value")
			}
			// jsonb equality, so that numbers and booleans compare by value
			args = append(args, f.Field, string(val))
			conds = append(conds, fmt.Sprintf("data->$%d::text = $%d::jsonb", len(args)-1, len(args)))
		}
	}
	return strings.Join(conds, " AND "), args, nil
}

func (s *Store) query(ctx context.Context, path string, filters []core.Filter) ([]core.Record, error) {
	cond, args, err := where(filters, []interface{}{path})
	if err != nil {
		return nil, err
	}
	var rows []row
	q := "SELECT id, data FROM documents WHERE " + cond + " ORDER BY id"
	if err = s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", path)
	}
	records := make([]core.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, core.Record{ID: r.ID, Data: r.Data})
	}
	return records, nil
}

func (s *Store) GetAll(ctx context.Context, path string, filters ...core.Filter) ([]core.Record, error) {
	return s.query(ctx, path, filters)
}

func (s *Store) Get(ctx context.Context, path, id string) (core.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, "SELECT id, data FROM documents WHERE collection = $1 AND id = $2", path, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, errors.Wrapf(err, "fetching %s/%s", path, id)
	}
	return core.Record{ID: r.ID, Data: r.Data}, nil
}

func (s *Store) Create(ctx context.Context, path string, data interface{}) (string, error) {
	id := s.newID()
	if err := create(ctx, s.db, path, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, path, id string, partial interface{}) error {
	return update(ctx, s.db, path, id, partial)
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", path, id)
	return errors.Wrapf(err, "deleting %s/%s", path, id)
}

// BatchWrite runs every operation in one transaction.
func (s *Store) BatchWrite(ctx context.Context, ops []core.Operation) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting batch")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, op := range ops {
		switch op.Kind {
		case core.OpCreate:
			id := op.ID
			if id == "" {
				id = s.newID()
			}
			err = create(ctx, tx, op.Path, id, op.Data)
		case core.OpUpdate:
			err = update(ctx, tx, op.Path, op.ID, op.Data)
		case core.OpDelete:
			_, err = tx.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", op.Path, op.ID)
		default:
			err = errors.Errorf("unknown operation %q", op.Kind)
		}
		if err != nil {
			return errors.Wrapf(err, "batch %s %s/%s", op.Kind, op.Path, op.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "committing batch")
}

func create(ctx context.Context, db sqlx.ExecerContext, path, id string, data interface{}) error {
	doc, err := encode(data)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)", path, id, doc)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errors.Errorf("%s/%s: document already exists", path, id)
	}
	return errors.Wrapf(err, "creating %s/%s", path, id)
}

// update merges the top level fields of partial into the document.
func update(ctx context.Context, db sqlx.ExecerContext, path, id string, partial interface{}) error {
	doc, err := encode(partial)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2",
		path, id, doc)
	if err != nil {
		return errors.Wrapf(err, "updating %s/%s", path, id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}
