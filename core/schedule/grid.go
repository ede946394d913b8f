package schedule

import (
	"math"
	"sort"

	"github.com/CSMathematics/student-management-sub000/core"
)

// GridConfig sizes the weekly timetable grid. Lengths are in pixels.
type GridConfig struct {
	StartHour      int
	EndHour        int
	SlotMinutes    int
	RowHeight      float64
	TimeAxisWidth  float64
	MinColumnWidth float64
}

var DefaultGridConfig = GridConfig{
	StartHour:      8,
	EndHour:        22,
	SlotMinutes:    30,
	RowHeight:      24,
	TimeAxisWidth:  60,
	MinColumnWidth: 40,
}

func NewGridConfig(conf core.ScheduleConfig) GridConfig {
	cfg := GridConfig{
		StartHour:      conf.StartHour,
		EndHour:        conf.EndHour,
		SlotMinutes:    conf.SlotMinutes,
		RowHeight:      conf.RowHeight,
		TimeAxisWidth:  conf.TimeAxisWidth,
		MinColumnWidth: conf.MinColumnWidth,
	}
	return cfg.withDefaults()
}

func (cfg GridConfig) withDefaults() GridConfig {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = DefaultGridConfig.SlotMinutes
	}
	if cfg.EndHour <= cfg.StartHour {
		cfg.StartHour, cfg.EndHour = DefaultGridConfig.StartHour, DefaultGridConfig.EndHour
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = DefaultGridConfig.RowHeight
	}
	if cfg.MinColumnWidth <= 0 {
		cfg.MinColumnWidth = DefaultGridConfig.MinColumnWidth
	}
	if cfg.TimeAxisWidth < 0 {
		cfg.TimeAxisWidth = 0
	}
	return cfg
}

type (
	// Box is a rectangle relative to the top left corner of the grid body (right of the time axis).
	Box struct {
		Left   float64 `json:"left"`
		Top    float64 `json:"top"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// Cell addresses one time row of one (day, teacher) column.
	Cell struct {
		Day       Day    `json:"day"`
		TeacherID string `json:"teacherId"`
		Row       int    `json:"row"`
	}

	// Placement is a classroom slot positioned on the grid.
	Placement struct {
		ClassroomID string `json:"classroomId"`
		SlotIndex   int    `json:"slotIndex"`
		TeacherID   string `json:"teacherId"`
		Subject     string `json:"subject"`
		Color       string `json:"color"`
		Slot        Slot   `json:"slot"`
		Box         Box    `json:"box"`
	}
)

// Grid maps schedule coordinates to pixels and back. It is immutable: build a new one
// whenever the visible days, the visible teachers or the viewport width change.
type Grid struct {
	cfg      GridConfig
	days     []Day
	teachers []Teacher
	colWidth float64

	dayIdx     map[Day]int
	teacherIdx map[string]int
}

// NewGrid lays out the visible days in canonical order and the visible teachers sorted by last name.
func NewGrid(cfg GridConfig, days []Day, teachers []Teacher, viewportWidth float64) *Grid {
	g := &Grid{
		cfg:        cfg.withDefaults(),
		dayIdx:     make(map[Day]int, len(days)),
		teacherIdx: make(map[string]int, len(teachers)),
	}

	visible := make(map[Day]bool, len(days))
	for _, d := range days {
		visible[d] = true
	}
	for _, d := range Days {
		if visible[d] {
			g.dayIdx[d] = len(g.days)
			g.days = append(g.days, d)
		}
	}

	g.teachers = make([]Teacher, 0, len(teachers))
	seen := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		if !seen[t.ID] {
			seen[t.ID] = true
			g.teachers = append(g.teachers, t)
		}
	}
	sort.SliceStable(g.teachers, func(i, j int) bool {
		a, b := g.teachers[i], g.teachers[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	for i, t := range g.teachers {
		g.teacherIdx[t.ID] = i
	}

	g.colWidth = g.cfg.MinColumnWidth
	if cols := g.Columns(); cols > 0 {
		g.colWidth = math.Max(g.cfg.MinColumnWidth, (viewportWidth-g.cfg.TimeAxisWidth)/float64(cols))
	}
	return g
}

func (g *Grid) Config() GridConfig   { return g.cfg }
func (g *Grid) Days() []Day          { return g.days }
func (g *Grid) Teachers() []Teacher  { return g.teachers }
func (g *Grid) ColumnWidth() float64 { return g.colWidth }
func (g *Grid) Columns() int         { return len(g.days) * len(g.teachers) }

// Rows is the number of time rows between the start and end hours.
func (g *Grid) Rows() int {
	return (g.cfg.EndHour - g.cfg.StartHour) * 60 / g.cfg.SlotMinutes
}

func (g *Grid) Width() float64  { return float64(g.Columns()) * g.colWidth }
func (g *Grid) Height() float64 { return float64(g.Rows()) * g.cfg.RowHeight }

// RowTime returns the time of day at which row starts.
func (g *Grid) RowTime(row int) Clock {
	return Clock(g.cfg.StartHour*60 + row*g.cfg.SlotMinutes)
}

func (g *Grid) teacher(id string) (Teacher, bool) {
	i, ok := g.teacherIdx[id]
	if !ok {
		return Teacher{}, false
	}
	return g.teachers[i], true
}

func (g *Grid) columnLeft(day Day, teacherID string) (float64, bool) {
	di, ok := g.dayIdx[day]
	if !ok {
		return 0, false
	}
	ti, ok := g.teacherIdx[teacherID]
	if !ok {
		return 0, false
	}
	return float64(di*len(g.teachers))*g.colWidth + float64(ti)*g.colWidth, true
}

// Place positions a slot of a classroom taught by teacherID. ok is false when its day or
// teacher is hidden or its time range is invalid.
func (g *Grid) Place(teacherID string, slot Slot) (Box, bool) {
	left, ok := g.columnLeft(slot.Day, teacherID)
	if !ok {
		return Box{}, false
	}
	start, end, ok := slot.Range()
	if !ok {
		return Box{}, false
	}
	slotMin := float64(g.cfg.SlotMinutes)
	startSlot := float64(int(start)-g.cfg.StartHour*60) / slotMin
	duration := float64(end-start) / slotMin
	return Box{
		Left:   left,
		Top:    startSlot * g.cfg.RowHeight,
		Width:  g.colWidth,
		Height: duration * g.cfg.RowHeight,
	}, true
}

// Layout places every visible slot of the classrooms.
func (g *Grid) Layout(classrooms []Classroom) []Placement {
	var placements []Placement
	for _, c := range classrooms {
		for i, s := range c.Schedule {
			box, ok := g.Place(c.TeacherID, s)
			if !ok {
				continue
			}
			placements = append(placements, Placement{
				ClassroomID: c.ID,
				SlotIndex:   i,
				TeacherID:   c.TeacherID,
				Subject:     c.Subject,
				Color:       c.Color,
				Slot:        s,
				Box:         box,
			})
		}
	}
	return placements
}

func (g *Grid) cell(col, row int) Cell {
	n := len(g.teachers)
	return Cell{Day: g.days[col/n], TeacherID: g.teachers[col%n].ID, Row: row}
}

// CellAt returns the cell containing the point (x, y).
func (g *Grid) CellAt(x, y float64) (Cell, bool) {
	if g.Columns() == 0 || x < 0 || y < 0 {
		return Cell{}, false
	}
	col := int(x / g.colWidth)
	row := int(y / g.cfg.RowHeight)
	if col >= g.Columns() || row >= g.Rows() {
		return Cell{}, false
	}
	return g.cell(col, row), true
}

// Snap returns the cell whose top left corner is nearest to (x, y), clamped to the grid.
func (g *Grid) Snap(x, y float64) (Cell, bool) {
	if g.Columns() == 0 || g.Rows() == 0 {
		return Cell{}, false
	}
	col := clamp(int(math.Round(x/g.colWidth)), 0, g.Columns()-1)
	row := clamp(int(math.Round(y/g.cfg.RowHeight)), 0, g.Rows()-1)
	return g.cell(col, row), true
}

// SnapRow returns the row boundary nearest to y, between 0 and Rows().
func (g *Grid) SnapRow(y float64) int {
	return clamp(int(math.Round(y/g.cfg.RowHeight)), 0, g.Rows())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
