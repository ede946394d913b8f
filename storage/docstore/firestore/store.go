// Package firestorestore is a core.Store over Cloud Firestore.
package firestorestore

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/CSMathematics/student-management-sub000/core"
)

type Store struct {
	client *firestore.Client
	logger core.Logger
}

var _ core.Store = (*Store)(nil)

// New connects to the Firestore database of the configured Firebase project.
// Without a credentials file the application default credentials are used.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (*Store, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	var fbConf *firebase.Config
	if conf.Firebase.ProjectID != "" {
		fbConf = &firebase.Config{ProjectID: conf.Firebase.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase")
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to firestore")
	}
	return &Store{client: client, logger: logger}, nil
}

func (s *Store) Close() error {
	return errors.Wrap(s.client.Close(), "closing firestore")
}

func notFound(err error) bool {
	return status.Code(errors.Cause(err)) == codes.NotFound
}

func (s *Store) query(path string, filters []core.Filter) (firestore.Query, error) {
	coll := s.client.Collection(path)
	q := coll.Query
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return q, err
		}
		switch {
		case f.Field == core.FieldID && f.Op == core.OpIn:
			refs := make([]*firestore.DocumentRef, 0, len(f.Values()))
			for _, id := range f.Values() {
				refs = append(refs, coll.Doc(id))
			}
			q = q.Where(firestore.DocumentID, "in", refs)
		case f.Field == core.FieldID:
			id, _ := f.Value.(string)
			q = q.Where(firestore.DocumentID, "==", coll.Doc(id))
		case f.Op == core.OpIn:
			q = q.WherePath(firestore.FieldPath{f.Field}, "in", f.Values())
		default:
			q = q.WherePath(firestore.FieldPath{f.Field}, "==", f.Value)
		}
	}
	return q, nil
}

func record(doc *firestore.DocumentSnapshot) (core.Record, error) {
	raw, err := json.Marshal(doc.Data())
	if err != nil {
		return core.Record{}, errors.Wrap(err, "encoding document "+doc.Ref.ID)
	}
	return core.Record{ID: doc.Ref.ID, Data: raw}, nil
}

func records(it *firestore.DocumentIterator) ([]core.Record, error) {
	defer it.Stop()
	var recs []core.Record
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := record(doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

func (s *Store) GetAll(ctx context.Context, path string, filters ...core.Filter) ([]core.Record, error) {
	q, err := s.query(path, filters)
	if err != nil {
		return nil, err
	}
	recs, err := records(q.Documents(ctx))
	return recs, errors.Wrapf(err, "querying %s", path)
}

func (s *Store) Get(ctx context.Context, path, id string) (core.Record, error) {
	doc, err := s.client.Collection(path).Doc(id).Get(ctx)
	if notFound(err) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, errors.Wrapf(err, "fetching %s/%s", path, id)
	}
	return record(doc)
}

func (s *Store) Create(ctx context.Context, path string, data interface{}) (string, error) {
	m, err := core.ToMap(data)
	if err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(path).Add(ctx, m)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s document", path)
	}
	return ref.ID, nil
}

func updates(partial interface{}) ([]firestore.Update, error) {
	m, err := core.ToMap(partial)
	if err != nil {
		return nil, err
	}
	ups := make([]firestore.Update, 0, len(m))
	for k, v := range m {
		ups = append(ups, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	return ups, nil
}

func (s *Store) Update(ctx context.Context, path, id string, partial interface{}) error {
	ups, err := updates(partial)
	if err != nil {
		return err
	}
	_, err = s.client.Collection(path).Doc(id).Update(ctx, ups)
	if notFound(err) {
		return core.ErrNotFound
	}
	return errors.Wrapf(err, "updating %s/%s", path, id)
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	_, err := s.client.Collection(path).Doc(id).Delete(ctx)
	return errors.Wrapf(err, "deleting %s/%s", path, id)
}

// BatchWrite applies the operations in a single transaction.
func (s *Store) BatchWrite(ctx context.Context, ops []core.Operation) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, op := range ops {
			coll := s.client.Collection(op.Path)
			var err error
			switch op.Kind {
			case core.OpCreate:
				ref := coll.NewDoc()
				if op.ID != "" {
					ref = coll.Doc(op.ID)
				}
				var m map[string]interface{}
				if m, err = core.ToMap(op.Data); err == nil {
					err = tx.Create(ref, m)
				}
			case core.OpUpdate:
				var ups []firestore.Update
				if ups, err = updates(op.Data); err == nil {
					err = tx.Update(coll.Doc(op.ID), ups)
				}
			case core.OpDelete:
				err = tx.Delete(coll.Doc(op.ID))
			default:
				err = errors.Errorf("unknown operation %q", op.Kind)
			}
			if err != nil {
				return errors.Wrapf(err, "batch %s %s/%s", op.Kind, op.Path, op.ID)
			}
		}
		return nil
	})
	if notFound(err) {
		return errors.Wrap(core.ErrNotFound, "batch write")
	}
	return errors.Wrap(err, "batch write")
}

// Subscribe listens to the query snapshots; every snapshot is delivered in full.
func (s *Store) Subscribe(ctx context.Context, path string, filters []core.Filter, onChange core.ChangeFunc) (func(), error) {
	q, err := s.query(path, filters)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return
			}
			if err != nil {
				err = errors.Wrapf(err, "listening to %s", path)
				s.logger.Error("firestore subscription", err)
				onChange(nil, err)
				return
			}
			recs, err := records(snap.Documents)
			onChange(recs, err)
		}
	}()
	return cancel, nil
}
