package inmemstore

import (
	"context"

	"github.com/CSMathematics/student-management-sub000/core"
)

// Subscribe delivers the current result set of the query right away, then again after every write to path.
// Bursts of writes are coalesced into a single delivery.
func (s *Store) Subscribe(ctx context.Context, path string, filters []core.Filter, onChange core.ChangeFunc) (func(), error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
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
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, sub)
			s.subsMu.Unlock()
			close(sub.done)
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
				s.mu.RLock()
				records, err := s.query(sub.path, sub.filters)
				s.mu.RUnlock()
				sub.onChange(records, err)
			}
		}
	}()
	return unsubscribe, nil
}

func (s *Store) publish(path string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		if sub.path != path {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default: // a delivery is already pending
		}
	}
}
