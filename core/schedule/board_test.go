package schedule

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
)

func testBoard() *Board {
	return NewBoard([]Classroom{
		classroom("c2", "t2", "Physics", Slot{Day: Monday, Start: "10:00", End: "11:00"}),
		classroom("c1", "t1", "Math", Slot{Day: Monday, Start: "10:00", End: "11:00"}, Slot{Day: Wednesday, Start: "17:00", End: "18:00"}),
	}, []Teacher{maria, nikos})
}

func find(t *testing.T, classrooms []Classroom, id string) Classroom {
	t.Helper()
	for _, c := range classrooms {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("classroom %s not found", id)
	return Classroom{}
}

func TestBoardEditSession(t *testing.T) {
	b := testBoard()

	t.Run("edits require edit mode", func(t *testing.T) {
		assert.Equal(t, ErrNotEditing, b.Recolor("c1", "#ff0000"))
		assert.Equal(t, ErrNotEditing, b.DeleteSlot("c1", 0))
		_, err := b.Changes()
		assert.Equal(t, ErrNotEditing, err)
	})

	b.BeginEdit()
	require.True(t, b.Editing())

	t.Run("draft is isolated from the original", func(t *testing.T) {
		require.NoError(t, b.DeleteSlot("c1", 0))
		assert.Len(t, find(t, b.Classrooms(), "c1").Schedule, 1)
		assert.Len(t, find(t, b.Original(), "c1").Schedule, 2)
	})

	t.Run("store updates keep the draft", func(t *testing.T) {
		b.SetClassrooms(append(b.Original(), classroom("c3", "t2", "Chemistry")))
		assert.Len(t, b.Original(), 3)
		assert.Len(t, b.Classrooms(), 2)
	})

	t.Run("cancel discards the draft", func(t *testing.T) {
		b.Cancel()
		assert.False(t, b.Editing())
		assert.Len(t, find(t, b.Classrooms(), "c1").Schedule, 2)
	})

	t.Run("missing classroom or slot", func(t *testing.T) {
		b.BeginEdit()
		defer b.Cancel()
		assert.Equal(t, ErrClassroomMissing, errors.Cause(b.Recolor("c9", "#000000")))
		assert.Equal(t, ErrSlotMissing, b.DeleteSlot("c1", 5))
	})
}

func TestBoardSave(t *testing.T) {
	b := testBoard()
	b.BeginEdit()

	require.NoError(t, b.Recolor("c1", "#3366ff"))
	require.NoError(t, b.DeleteSlot("c2", 0))
	draft := append(b.Classrooms(), classroom("c4", "t2", "Biology"))
	require.NoError(t, b.ReplaceDraft(draft))

	ops, err := b.Save()
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, core.OpUpdate, ops[0].Kind)
	assert.Equal(t, "c1", ops[0].ID)
	assert.Equal(t, "#3366ff", ops[0].Data.(Classroom).Color)
	assert.Equal(t, core.OpUpdate, ops[1].Kind)
	assert.Equal(t, "c2", ops[1].ID)
	assert.Empty(t, ops[1].Data.(Classroom).Schedule)
	assert.Equal(t, core.OpCreate, ops[2].Kind)
	assert.Equal(t, "c4", ops[2].ID)
	for _, op := range ops {
		assert.Equal(t, core.CollClassrooms, op.Path)
	}

	assert.False(t, b.Editing())
	assert.Equal(t, "#3366ff", find(t, b.Classrooms(), "c1").Color)

	t.Run("deleted classroom", func(t *testing.T) {
		b.BeginEdit()
		require.NoError(t, b.ReplaceDraft([]Classroom{find(t, b.Classrooms(), "c1")}))
		ops, err := b.Save()
		require.NoError(t, err)
		require.Len(t, ops, 2)
		for _, op := range ops {
			assert.Equal(t, core.OpDelete, op.Kind)
		}
	})

	t.Run("nothing changed", func(t *testing.T) {
		b.BeginEdit()
		ops, err := b.Save()
		require.NoError(t, err)
		assert.Empty(t, ops)
	})
}

func TestBoardConcurrentCreate(t *testing.T) {
	remote := classroom("c3", "t2", "Chemistry", Slot{Day: Friday, Start: "09:00", End: "10:00"})

	tests := []struct {
		name    string
		edit    func(t *testing.T, b *Board)
		deletes []string
	}{
		{
			name: "untouched draft",
			edit: func(t *testing.T, b *Board) {},
		},
		{
			name: "removed classroom still deleted",
			edit: func(t *testing.T, b *Board) {
				require.NoError(t, b.ReplaceDraft([]Classroom{find(t, b.Classrooms(), "c1")}))
			},
			deletes: []string{"c2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBoard()
			b.BeginEdit()
			b.SetClassrooms(append(b.Original(), remote))
			tt.edit(t, b)

			ops, err := b.Changes()
			require.NoError(t, err)
			var deletes []string
			for _, op := range ops {
				if op.Kind == core.OpDelete {
					deletes = append(deletes, op.ID)
				}
			}
			assert.Equal(t, tt.deletes, deletes)

			b.Commit()
			assert.Equal(t, remote, find(t, b.Classrooms(), "c3"))
			assert.Equal(t, remote, find(t, b.Original(), "c3"))
		})
	}

	t.Run("next session can delete it", func(t *testing.T) {
		b := testBoard()
		b.BeginEdit()
		b.SetClassrooms(append(b.Original(), remote))
		b.Commit()

		b.BeginEdit()
		require.NoError(t, b.ReplaceDraft(b.Original()[:2]))
		ops, err := b.Changes()
		require.NoError(t, err)
		require.Len(t, ops, 1)
		assert.Equal(t, core.OpDelete, ops[0].Kind)
		assert.Equal(t, "c3", ops[0].ID)
	})
}

func TestBoardAddSlots(t *testing.T) {
	b := testBoard()
	b.BeginEdit()

	t.Run("all or nothing", func(t *testing.T) {
		err := b.AddSlots("c2",
			Slot{Day: Tuesday, Start: "09:00", End: "10:00"},
			Slot{Day: Tuesday, Start: "12:00", End: "13:00"},
			Slot{Day: Tuesday, Start: "12:30", End: "13:30"},
		)
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.Len(t, find(t, b.Classrooms(), "c2").Schedule, 1)
	})

	t.Run("other classroom of the same teacher", func(t *testing.T) {
		err := b.ReplaceDraft(append(b.Classrooms(), classroom("c3", "t1", "Algebra")))
		require.NoError(t, err)

		err = b.AddSlots("c3", Slot{Day: Wednesday, Start: "17:30", End: "18:30"})
		require.Error(t, err)
		assert.Equal(t, "Maria Papadopoulou already teaches Math on Wednesday 17:00-18:00", err.Error())
	})

	t.Run("added", func(t *testing.T) {
		require.NoError(t, b.AddSlots("c2",
			Slot{Day: Tuesday, Start: "09:00", End: "10:00"},
			Slot{Day: Tuesday, Start: "12:00", End: "13:00"},
		))
		assert.Len(t, find(t, b.Classrooms(), "c2").Schedule, 3)
	})
}

func TestBoardSetSlot(t *testing.T) {
	b := testBoard()
	b.BeginEdit()

	t.Run("move in time", func(t *testing.T) {
		require.NoError(t, b.SetSlot("c1", 0, Slot{Day: Monday, Start: "11:00", End: "12:00"}, "t1"))
		assert.Equal(t, Slot{Day: Monday, Start: "11:00", End: "12:00"}, find(t, b.Classrooms(), "c1").Schedule[0])
	})

	t.Run("conflicting teacher reassignment", func(t *testing.T) {
		err := b.SetSlot("c1", 0, Slot{Day: Monday, Start: "10:30", End: "11:30"}, "t2")
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		c1 := find(t, b.Classrooms(), "c1")
		assert.Equal(t, "t1", c1.TeacherID)
		assert.Equal(t, "11:00", c1.Schedule[0].Start)
	})

	t.Run("other slots checked against the new teacher", func(t *testing.T) {
		require.NoError(t, b.AddSlots("c2", Slot{Day: Wednesday, Start: "17:00", End: "18:00"}))
		err := b.SetSlot("c1", 0, Slot{Day: Friday, Start: "10:00", End: "11:00"}, "t2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nikos Georgiou already teaches Physics on Wednesday 17:00-18:00")
	})

	t.Run("reassigned", func(t *testing.T) {
		require.NoError(t, b.DeleteSlot("c2", 1))
		require.NoError(t, b.SetSlot("c1", 0, Slot{Day: Friday, Start: "10:00", End: "11:00"}, "t2"))
		assert.Equal(t, "t2", find(t, b.Classrooms(), "c1").TeacherID)
	})

	t.Run("overlapping own slot", func(t *testing.T) {
		err := b.SetSlot("c1", 0, Slot{Day: Wednesday, Start: "16:30", End: "17:30"}, "t2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "the classroom already has a lesson")
	})
}
