package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
)

// two days, two teachers, four 100px columns
func testGrid(t *testing.T) *Grid {
	t.Helper()
	g := NewGrid(DefaultGridConfig, []Day{Tuesday, Monday}, []Teacher{maria, nikos, maria}, 460)
	require.Equal(t, 4, g.Columns())
	return g
}

func TestNewGrid(t *testing.T) {
	g := testGrid(t)

	assert.Equal(t, []Day{Monday, Tuesday}, g.Days())
	assert.Equal(t, []Teacher{nikos, maria}, g.Teachers())
	assert.Equal(t, 100.0, g.ColumnWidth())
	assert.Equal(t, 28, g.Rows())
	assert.Equal(t, 400.0, g.Width())
	assert.Equal(t, 672.0, g.Height())
	assert.Equal(t, "08:00", g.RowTime(0).String())
	assert.Equal(t, "10:30", g.RowTime(5).String())
	assert.Equal(t, "22:00", g.RowTime(g.Rows()).String())

	t.Run("narrow viewport keeps the minimum column width", func(t *testing.T) {
		g := NewGrid(DefaultGridConfig, Days, []Teacher{maria, nikos}, 300)
		assert.Equal(t, DefaultGridConfig.MinColumnWidth, g.ColumnWidth())
	})

	t.Run("config defaults", func(t *testing.T) {
		cfg := NewGridConfig(core.ScheduleConfig{StartHour: 9, EndHour: 9, RowHeight: 30})
		assert.Equal(t, 8, cfg.StartHour)
		assert.Equal(t, 22, cfg.EndHour)
		assert.Equal(t, 30, cfg.SlotMinutes)
		assert.Equal(t, 30.0, cfg.RowHeight)
	})
}

func TestGridPlace(t *testing.T) {
	g := testGrid(t)

	tests := []struct {
		name      string
		teacherID string
		slot      Slot
		want      Box
		wantOK    bool
	}{
		{
			name:      "first column",
			teacherID: "t2",
			slot:      Slot{Day: Monday, Start: "08:00", End: "09:00"},
			want:      Box{Left: 0, Top: 0, Width: 100, Height: 48},
			wantOK:    true,
		},
		{
			name:      "second day second teacher",
			teacherID: "t1",
			slot:      Slot{Day: Tuesday, Start: "10:00", End: "11:30"},
			want:      Box{Left: 300, Top: 96, Width: 100, Height: 72},
			wantOK:    true,
		},
		{
			name:      "off the half hour",
			teacherID: "t1",
			slot:      Slot{Day: Monday, Start: "10:15", End: "11:00"},
			want:      Box{Left: 100, Top: 108, Width: 100, Height: 36},
			wantOK:    true,
		},
		{name: "hidden day", teacherID: "t1", slot: Slot{Day: Friday, Start: "10:00", End: "11:00"}},
		{name: "hidden teacher", teacherID: "t9", slot: Slot{Day: Monday, Start: "10:00", End: "11:00"}},
		{name: "invalid range", teacherID: "t1", slot: Slot{Day: Monday, Start: "11:00", End: "10:00"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := g.Place(tc.teacherID, tc.slot)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGridLayout(t *testing.T) {
	g := testGrid(t)
	classrooms := []Classroom{
		classroom("c1", "t1", "Math",
			Slot{Day: Monday, Start: "10:00", End: "11:00"},
			Slot{Day: Friday, Start: "10:00", End: "11:00"},
			Slot{Day: Tuesday, Start: "12:00", End: "13:00"}),
		classroom("c2", "t9", "Physics", Slot{Day: Monday, Start: "10:00", End: "11:00"}),
	}

	placements := g.Layout(classrooms)
	require.Len(t, placements, 2)
	assert.Equal(t, "c1", placements[0].ClassroomID)
	assert.Equal(t, 0, placements[0].SlotIndex)
	assert.Equal(t, 2, placements[1].SlotIndex)
	assert.Equal(t, Box{Left: 300, Top: 192, Width: 100, Height: 48}, placements[1].Box)
}

func TestGridHitTesting(t *testing.T) {
	g := testGrid(t)

	t.Run("CellAt", func(t *testing.T) {
		cell, ok := g.CellAt(150, 100)
		require.True(t, ok)
		assert.Equal(t, Cell{Day: Monday, TeacherID: "t1", Row: 4}, cell)

		cell, ok = g.CellAt(399, 0)
		require.True(t, ok)
		assert.Equal(t, Cell{Day: Tuesday, TeacherID: "t1", Row: 0}, cell)

		for _, p := range [][2]float64{{-1, 10}, {10, -1}, {400, 10}, {10, 672}} {
			_, ok = g.CellAt(p[0], p[1])
			assert.False(t, ok, p)
		}
	})

	t.Run("Snap rounds and clamps", func(t *testing.T) {
		cell, ok := g.Snap(160, 110)
		require.True(t, ok)
		assert.Equal(t, Cell{Day: Tuesday, TeacherID: "t2", Row: 5}, cell)

		cell, ok = g.Snap(-80, 10000)
		require.True(t, ok)
		assert.Equal(t, Cell{Day: Monday, TeacherID: "t2", Row: 27}, cell)
	})

	t.Run("SnapRow", func(t *testing.T) {
		assert.Equal(t, 0, g.SnapRow(-30))
		assert.Equal(t, 3, g.SnapRow(70))
		assert.Equal(t, 28, g.SnapRow(5000))
	})

	t.Run("empty grid", func(t *testing.T) {
		g := NewGrid(DefaultGridConfig, nil, nil, 800)
		_, ok := g.CellAt(10, 10)
		assert.False(t, ok)
		_, ok = g.Snap(10, 10)
		assert.False(t, ok)
	})
}
