package pgstore

import (
	"context"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

// notifyChannel is the channel the documents trigger notifies with the collection of every changed row.
const notifyChannel = "documents"

type subscription struct {
	path     string
	filters  []core.Filter
	onChange core.ChangeFunc
	notify   chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (s *Store) listen() error {
	if s.listener != nil {
		return nil
	}
	l := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Error("documents listener", err)
		}
	})
	if err := l.Listen(notifyChannel); err != nil {
		_ = l.Close()
		return errors.Wrap(err, "listening for document changes")
	}
	s.listener = l

	go func() {
		for n := range l.Notify {
			// nil after a reconnection: changes may have been missed
			if n == nil {
				s.publish("")
				continue
			}
			s.publish(n.Extra)
		}
	}()
	return nil
}

// Subscribe delivers the current result set of the query right away, then again after every change
// notified for path. Bursts of notifications are coalesced into a single delivery.
func (s *Store) Subscribe(ctx context.Context, path string, filters []core.Filter, onChange core.ChangeFunc) (func(), error) {
	if _, _, err := where(filters, []interface{}{path}); err != nil {
		return nil, err
	}
	sub := &subscription{
		path:     path,
		filters:  filters,
		onChange: onChange,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	sub.notify <- struct{}{}

	s.subsMu.Lock()
	if err := s.listen(); err != nil {
		s.subsMu.Unlock()
		return nil, err
	}
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := func() {
		sub.once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, sub)
			s.subsMu.Unlock()
			close(sub.done)
			cancel()
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-sub.done:
				return
			case <-sub.notify:
				records, err := s.query(ctx, sub.path, sub.filters)
				if ctx.Err() != nil {
					continue
				}
				sub.onChange(records, err)
			}
		}
	}()
	return unsubscribe, nil
}

// publish wakes the subscriptions of path, or every subscription when path is empty.
func (s *Store) publish(path string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		if path != "" && sub.path != path {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}
