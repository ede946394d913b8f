package schedule

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

var (
	ErrNotEditing       = errors.New("the schedule is not in edit mode")
	ErrClassroomMissing = errors.New("classroom not found")
	ErrSlotMissing      = errors.New("slot not found")
)

// Board holds the canonical classrooms and, while editing, a private working draft of them.
// Edits only ever touch the draft; Changes diffs it against the canonical copy.
type Board struct {
	mu       sync.RWMutex
	original []Classroom
	draft    []Classroom
	base     map[string]struct{} // ids of the canonical classrooms when editing began
	editing  bool
	teachers map[string]Teacher
}

func NewBoard(classrooms []Classroom, teachers []Teacher) *Board {
	b := &Board{}
	b.SetClassrooms(classrooms)
	b.SetTeachers(teachers)
	return b
}

func cloneAll(classrooms []Classroom) []Classroom {
	out := make([]Classroom, len(classrooms))
	for i, c := range classrooms {
		out[i] = c.clone()
	}
	return out
}

// SetClassrooms replaces the canonical classrooms, as delivered by a store subscription.
// A draft being edited is left untouched.
func (b *Board) SetClassrooms(classrooms []Classroom) {
	cls := cloneAll(classrooms)
	sort.SliceStable(cls, func(i, j int) bool { return cls[i].ID < cls[j].ID })

	b.mu.Lock()
	b.original = cls
	b.mu.Unlock()
}

func (b *Board) SetTeachers(teachers []Teacher) {
	idx := make(map[string]Teacher, len(teachers))
	for _, t := range teachers {
		idx[t.ID] = t
	}
	b.mu.Lock()
	b.teachers = idx
	b.mu.Unlock()
}

// Classrooms returns the draft while editing, the canonical classrooms otherwise.
func (b *Board) Classrooms() []Classroom {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.editing {
		return cloneAll(b.draft)
	}
	return cloneAll(b.original)
}

func (b *Board) Original() []Classroom {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAll(b.original)
}

func (b *Board) Editing() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.editing
}

// BeginEdit starts an edit session on a deep copy of the canonical classrooms.
func (b *Board) BeginEdit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.editing {
		b.draft = cloneAll(b.original)
		b.base = make(map[string]struct{}, len(b.original))
		for _, c := range b.original {
			b.base[c.ID] = struct{}{}
		}
		b.editing = true
	}
}

// Cancel discards the draft.
func (b *Board) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft, b.base, b.editing = nil, nil, false
}

// ReplaceDraft substitutes the whole draft, e.g. with classrooms edited by a remote client.
func (b *Board) ReplaceDraft(classrooms []Classroom) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.editing {
		return ErrNotEditing
	}
	b.draft = cloneAll(classrooms)
	return nil
}

// Changes returns one write per classroom whose draft differs from the canonical copy:
// an update for a changed classroom, a delete for a removed one, a create for a new one.
// Only classrooms present when editing began can be removed.
func (b *Board) Changes() ([]core.Operation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.editing {
		return nil, ErrNotEditing
	}

	drafts := make(map[string]Classroom, len(b.draft))
	for _, c := range b.draft {
		drafts[c.ID] = c
	}

	var ops []core.Operation
	for _, orig := range b.original {
		d, ok := drafts[orig.ID]
		switch {
		case !ok:
			if _, known := b.base[orig.ID]; known {
				ops = append(ops, core.Operation{Kind: core.OpDelete, Path: core.CollClassrooms, ID: orig.ID})
			}
		case !reflect.DeepEqual(normalize(orig), normalize(d)):
			ops = append(ops, core.Operation{Kind: core.OpUpdate, Path: core.CollClassrooms, ID: orig.ID, Data: d})
		}
		delete(drafts, orig.ID)
	}
	for _, d := range b.draft {
		if _, ok := drafts[d.ID]; ok {
			ops = append(ops, core.Operation{Kind: core.OpCreate, Path: core.CollClassrooms, ID: d.ID, Data: d})
		}
	}
	return ops, nil
}

// normalize makes nil and empty schedules compare equal.
func normalize(c Classroom) Classroom {
	if len(c.Schedule) == 0 {
		c.Schedule = nil
	}
	return c
}

// Commit adopts the draft as the canonical copy and leaves edit mode.
func (b *Board) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.editing {
		return
	}
	drafts := make(map[string]struct{}, len(b.draft))
	for _, c := range b.draft {
		drafts[c.ID] = struct{}{}
	}
	// keep classrooms created by others meanwhile
	for _, c := range b.original {
		_, known := b.base[c.ID]
		if _, ok := drafts[c.ID]; !ok && !known {
			b.draft = append(b.draft, c)
		}
	}
	sort.SliceStable(b.draft, func(i, j int) bool { return b.draft[i].ID < b.draft[j].ID })
	b.original, b.draft, b.base, b.editing = b.draft, nil, nil, false
}

// Save returns the draft changes and leaves edit mode.
func (b *Board) Save() ([]core.Operation, error) {
	ops, err := b.Changes()
	if err != nil {
		return nil, err
	}
	b.Commit()
	return ops, nil
}

// edit runs fn on the draft classroom with the given id. fn changes are kept only when it returns nil.
func (b *Board) edit(classroomID string, fn func(c *Classroom, others []Classroom, teachers map[string]Teacher) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.editing {
		return ErrNotEditing
	}
	for i := range b.draft {
		if b.draft[i].ID != classroomID {
			continue
		}
		c := b.draft[i].clone()
		if err := fn(&c, b.draft, b.teachers); err != nil {
			return err
		}
		b.draft[i] = c
		return nil
	}
	return errors.Wrap(ErrClassroomMissing, classroomID)
}

func (b *Board) DeleteSlot(classroomID string, slotIndex int) error {
	return b.edit(classroomID, func(c *Classroom, _ []Classroom, _ map[string]Teacher) error {
		if slotIndex < 0 || slotIndex >= len(c.Schedule) {
			return ErrSlotMissing
		}
		c.Schedule = append(c.Schedule[:slotIndex], c.Schedule[slotIndex+1:]...)
		return nil
	})
}

func (b *Board) Recolor(classroomID, color string) error {
	return b.edit(classroomID, func(c *Classroom, _ []Classroom, _ map[string]Teacher) error {
		c.Color = color
		return nil
	})
}

// AddSlots adds hours to a classroom; either all of them are added or none.
func (b *Board) AddSlots(classroomID string, slots ...Slot) error {
	return b.edit(classroomID, func(c *Classroom, others []Classroom, teachers map[string]Teacher) error {
		for _, s := range slots {
			if err := checkSlot(others, teachers, s, c.TeacherID, c.ID, c.Schedule, -1); err != nil {
				return err
			}
			c.Schedule = append(c.Schedule, s)
		}
		return nil
	})
}

// SetSlot replaces one slot of a classroom, reassigning the classroom to teacherID.
// When the teacher changes every other slot of the classroom is checked against the new teacher too.
func (b *Board) SetSlot(classroomID string, slotIndex int, slot Slot, teacherID string) error {
	return b.edit(classroomID, func(c *Classroom, others []Classroom, teachers map[string]Teacher) error {
		if slotIndex < 0 || slotIndex >= len(c.Schedule) {
			return ErrSlotMissing
		}
		if err := checkSlot(others, teachers, slot, teacherID, c.ID, c.Schedule, slotIndex); err != nil {
			return err
		}
		if teacherID != c.TeacherID {
			for i, s := range c.Schedule {
				if i == slotIndex {
					continue
				}
				if err := checkSlot(others, teachers, s, teacherID, c.ID, nil, -1); err != nil {
					return err
				}
			}
		}
		c.Schedule[slotIndex] = slot
		c.TeacherID = teacherID
		return nil
	})
}

func (b *Board) teacherIndex() map[string]Teacher {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.teachers
}
