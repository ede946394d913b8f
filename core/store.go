package core

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// MaxInValues is the largest number of values a single membership filter may carry.
// Callers with longer lists must chunk them (see GetAllByIDs).
const MaxInValues = 30

// FieldID addresses the document id in filters.
const FieldID = "$id"

// Collections
const (
	CollStudents    = "students"
	CollTeachers    = "teachers"
	CollClassrooms  = "classrooms"
	CollGrades      = "grades"
	CollAbsences    = "absences"
	CollSubmissions = "submissions"
	CollAssignments = "assignments"
	CollPayments    = "payments"
)

var ErrTooManyValues = errors.Errorf("membership filter exceeds %d values", MaxInValues)

// BadgesPath is the sub-collection holding a student's earned badges.
func BadgesPath(studentID string) string {
	return JoinPath(CollStudents, studentID, "badges")
}

func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

type FilterOp string

const (
	OpEq FilterOp = "=="
	OpIn FilterOp = "in"
)

type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

// Values returns the membership list of an OpIn filter.
func (f Filter) Values() []string {
	vals, _ := f.Value.([]string)
	return vals
}

// Validate checks the store capability limits of the filter.
func (f Filter) Validate() error {
	if f.Op == OpIn && len(f.Values()) > MaxInValues {
		return ErrTooManyValues
	}
	if f.Op != OpEq && f.Op != OpIn {
		return errors.Errorf("unsupported filter operator %q", f.Op)
	}
	return nil
}

// Record is a stored document: its id and JSON encoded data.
type Record struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the record data into v and sets the "id" json field from the record id.
func (r Record) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return errors.Wrap(err, "decoding record "+r.ID)
	}
	// only the `json:"id"` field is touched
	id, _ := json.Marshal(map[string]string{"id": r.ID})
	return errors.Wrap(json.Unmarshal(id, v), "decoding record id")
}

type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

// Operation is a single write of an atomic batch.
// Create with an empty ID lets the store generate one.
type Operation struct {
	Kind OperationKind
	Path string
	ID   string
	Data interface{}
}

type (
	// ChangeFunc receives the full current result set on every change; it replaces, never merges.
	ChangeFunc func(records []Record, err error)

	Store interface {
		GetAll(ctx context.Context, path string, filters ...Filter) ([]Record, error)
		Get(ctx context.Context, path, id string) (Record, error)
		Subscribe(ctx context.Context, path string, filters []Filter, onChange ChangeFunc) (unsubscribe func(), err error)
		Create(ctx context.Context, path string, data interface{}) (string, error)
		Update(ctx context.Context, path, id string, partial interface{}) error
		Delete(ctx context.Context, path, id string) error
		BatchWrite(ctx context.Context, ops []Operation) error
	}
)

// GetAllByIDs fetches the documents of path whose id is in ids, chunking around MaxInValues.
func GetAllByIDs(ctx context.Context, store Store, path string, ids []string) ([]Record, error) {
	return GetAllByField(ctx, store, path, FieldID, ids)
}

// GetAllByField fetches the documents of path whose field value is in vals, chunking around MaxInValues.
func GetAllByField(ctx context.Context, store Store, path, field string, vals []string) ([]Record, error) {
	var records []Record
	for _, chunk := range ChunkStrings(UniqueStrings(vals), MaxInValues) {
		recs, err := store.GetAll(ctx, path, In(field, chunk...))
		if err != nil {
			return nil, errors.Wrapf(err, "fetching %s by %s", path, field)
		}
		records = append(records, recs...)
	}
	return records, nil
}

// DecodeAll decodes every record into a new T.
func DecodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := rec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToMap converts data into a generic JSON object.
func ToMap(data interface{}) (map[string]interface{}, error) {
	if m, ok := data.(map[string]interface{}); ok {
		return m, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	m := make(map[string]interface{})
	if err = json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	delete(m, "id")
	return m, nil
}
