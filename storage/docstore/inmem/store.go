// Package inmemstore is a core.Store kept in process memory, used by tests and local development.
package inmemstore

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

type (
	collection map[string]json.RawMessage // {id: data}

	subscription struct {
		path     string
		filters  []core.Filter
		onChange core.ChangeFunc
		notify   chan struct{}
		done     chan struct{}
		once     sync.Once
	}

	Store struct {
		mu     sync.RWMutex
		colls  map[string]collection // {path: collection}
		subsMu sync.Mutex
		subs   map[*subscription]struct{}
		newID  func() string
	}
)

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		colls: make(map[string]collection),
		subs:  make(map[*subscription]struct{}),
		newID: uuid.NewString,
	}
}

func encode(data interface{}) (json.RawMessage, error) {
	m, err := core.ToMap(data)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(m)
	return raw, errors.Wrap(err, "encoding document")
}

func (s *Store) query(path string, filters []core.Filter) ([]core.Record, error) {
	coll := s.colls[path]
	records := make([]core.Record, 0, len(coll))
	for id, data := range coll {
		ok, err := matches(id, data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, core.Record{ID: id, Data: data})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *Store) GetAll(_ context.Context, path string, filters ...core.Filter) ([]core.Record, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(path, filters)
}

func (s *Store) Get(_ context.Context, path, id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.colls[path][id]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return core.Record{ID: id, Data: data}, nil
}

func (s *Store) Create(_ context.Context, path string, data interface{}) (string, error) {
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	id := s.newID()
	s.collection(path)[id] = raw
	s.mu.Unlock()

	s.publish(path)
	return id, nil
}

func (s *Store) Update(_ context.Context, path, id string, partial interface{}) error {
	s.mu.Lock()
	err := s.update(path, id, partial)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(path)
	return nil
}

func (s *Store) Delete(_ context.Context, path, id string) error {
	s.mu.Lock()
	delete(s.colls[path], id)
	s.mu.Unlock()

	s.publish(path)
	return nil
}

// BatchWrite applies every operation or none: all of them are checked before the first is applied.
func (s *Store) BatchWrite(_ context.Context, ops []core.Operation) error {
	s.mu.Lock()
	if err := s.check(ops); err != nil {
		s.mu.Unlock()
		return err
	}
	paths := make([]string, 0, len(ops))
	for _, op := range ops {
		var err error
		switch op.Kind {
		case core.OpCreate:
			id := op.ID
			if id == "" {
				id = s.newID()
			}
			var raw json.RawMessage
			if raw, err = encode(op.Data); err == nil {
				s.collection(op.Path)[id] = raw
			}
		case core.OpUpdate:
			err = s.update(op.Path, op.ID, op.Data)
		case core.OpDelete:
			delete(s.colls[op.Path], op.ID)
		}
		if err != nil {
			// check validated everything that can fail but encoding
			s.mu.Unlock()
			return errors.Wrapf(err, "batch %s %s/%s", op.Kind, op.Path, op.ID)
		}
		paths = append(paths, op.Path)
	}
	s.mu.Unlock()

	for _, path := range core.UniqueStrings(paths) {
		s.publish(path)
	}
	return nil
}

func (s *Store) check(ops []core.Operation) error {
	created := make(map[string]struct{})
	for _, op := range ops {
		key := core.JoinPath(op.Path, op.ID)
		_, exists := s.colls[op.Path][op.ID]
		if _, ok := created[key]; ok {
			exists = true
		}
		switch op.Kind {
		case core.OpCreate:
			if op.ID != "" && exists {
				return errors.Errorf("batch create %s: document already exists", key)
			}
			if _, err := encode(op.Data); err != nil {
				return errors.Wrapf(err, "batch create %s", key)
			}
			created[key] = struct{}{}
		case core.OpUpdate:
			if !exists {
				return errors.Wrapf(core.ErrNotFound, "batch update %s", key)
			}
			if _, err := core.ToMap(op.Data); err != nil {
				return errors.Wrapf(err, "batch update %s", key)
			}
		case core.OpDelete:
		default:
			return errors.Errorf("batch: unknown operation %q", op.Kind)
		}
	}
	return nil
}

func (s *Store) collection(path string) collection {
	coll, ok := s.colls[path]
	if !ok {
		coll = make(collection)
		s.colls[path] = coll
	}
	return coll
}

// update merges the top level fields of partial into the document. The caller holds the write lock.
func (s *Store) update(path, id string, partial interface{}) error {
	data, ok := s.colls[path][id]
	if !ok {
		return core.ErrNotFound
	}
	fields, err := core.ToMap(partial)
	if err != nil {
		return err
	}
	doc := make(map[string]interface{})
	if err = json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "decoding document")
	}
	for k, v := range fields {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	s.colls[path][id] = raw
	return nil
}

func matches(id string, data json.RawMessage, filters []core.Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, errors.Wrap(err, "decoding document")
	}
	for _, f := range filters {
		var val interface{} = id
		if f.Field != core.FieldID {
			val = doc[f.Field]
		}
		switch f.Op {
		case core.OpEq:
			want, err := normalize(f.Value)
			if err != nil {
				return false, err
			}
			if !reflect.DeepEqual(val, want) {
				return false, nil
			}
		case core.OpIn:
			str, ok := val.(string)
			if !ok || !contains(f.Values(), str) {
				return false, nil
			}
		}
	}
	return true, nil
}

// normalize gives v the shape it would have once decoded from a stored document.
func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding filter value")
	}
	var out interface{}
	return out, errors.Wrap(json.Unmarshal(raw, &out), "encoding filter value")
}

func contains(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
