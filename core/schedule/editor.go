package schedule

import (
	"github.com/pkg/errors"
)

// HotZone is the height in pixels of the top and bottom edges of a placed slot that start a resize.
const HotZone = 8.0

var errCrossColumn = &ConflictError{Message: "a new lesson must stay within a single day and teacher column"}

type (
	Pointer struct {
		X, Y  float64
		Multi bool // multi-select modifier held
	}

	gestureKind int

	gesture struct {
		kind   gestureKind
		origin Pointer
		from   Cell      // create: anchor cell
		to     Cell      // create: current cell
		spans  bool      // create: selection left the anchor column
		target Placement // move, resize
		box    Box       // move, resize: unsnapped preview
	}

	ResultKind string

	// Result is the outcome of a finished gesture.
	Result struct {
		Kind        ResultKind     `json:"kind"`
		ClassroomID string         `json:"classroomId,omitempty"`
		TeacherID   string         `json:"teacherId,omitempty"`
		Slot        Slot           `json:"slot"`
		Conflict    *ConflictError `json:"-"`
		Message     string         `json:"message,omitempty"`
	}
)

const (
	gestureCreate gestureKind = iota + 1
	gestureMove
	gestureResizeTop
	gestureResizeBottom
)

const (
	ResultNone         ResultKind = "none"
	ResultNewClassroom ResultKind = "new_classroom" // open the new classroom flow with Slot and TeacherID
	ResultPending      ResultKind = "pending"       // Slot joined the pending batch
	ResultMoved        ResultKind = "moved"
	ResultResized      ResultKind = "resized"
	ResultConflict     ResultKind = "conflict"
)

func conflictResult(err error) Result {
	var ce *ConflictError
	if !errors.As(err, &ce) {
		ce = &ConflictError{Message: err.Error()}
	}
	return Result{Kind: ResultConflict, Slot: ce.Slot, Conflict: ce, Message: ce.Message}
}

// PendingSlot is a slot selected for the pending batch.
type PendingSlot struct {
	Slot      Slot   `json:"slot"`
	TeacherID string `json:"teacherId"`
}

// Editor turns pointer gestures on a Grid into Board edits. One gesture is active at a time;
// an Editor belongs to a single UI session and is not safe for concurrent use.
type Editor struct {
	grid     *Grid
	board    *Board
	active   *gesture
	pending  []PendingSlot
	addHours string // classroom receiving the pending batch
}

func NewEditor(grid *Grid, board *Board) *Editor {
	return &Editor{grid: grid, board: board}
}

// SetGrid swaps the grid after the visible days, teachers or viewport width changed.
func (e *Editor) SetGrid(grid *Grid) {
	e.grid = grid
	e.active = nil
}

// SetAddHoursMode makes every new selection join the pending batch for classroomID; "" turns it off.
func (e *Editor) SetAddHoursMode(classroomID string) { e.addHours = classroomID }

func (e *Editor) Pending() []PendingSlot { return append([]PendingSlot(nil), e.pending...) }

func (e *Editor) DiscardPending() { e.pending = nil }

// Active reports whether a gesture is in progress.
func (e *Editor) Active() bool { return e.active != nil }

// Preview returns the unsnapped position of the slot being moved or resized.
func (e *Editor) Preview() (Placement, bool) {
	if e.active == nil || e.active.kind == gestureCreate {
		return Placement{}, false
	}
	p := e.active.target
	p.Box = e.active.box
	return p, true
}

// Selection returns the slot currently selected by a create gesture.
func (e *Editor) Selection() (PendingSlot, bool) {
	if e.active == nil || e.active.kind != gestureCreate {
		return PendingSlot{}, false
	}
	return e.selection(), true
}

func (e *Editor) selection() PendingSlot {
	from, to := e.active.from.Row, e.active.to.Row
	if to < from {
		from, to = to, from
	}
	return PendingSlot{
		TeacherID: e.active.from.TeacherID,
		Slot: Slot{
			Day:   e.active.from.Day,
			Start: e.grid.RowTime(from).String(),
			End:   e.grid.RowTime(to + 1).String(),
		},
	}
}

// hit returns the placed slot under p and which part of it was hit.
func (e *Editor) hit(p Pointer) (Placement, gestureKind, bool) {
	for _, pl := range e.grid.Layout(e.board.Classrooms()) {
		b := pl.Box
		if p.X < b.Left || p.X >= b.Left+b.Width || p.Y < b.Top || p.Y > b.Top+b.Height {
			continue
		}
		switch {
		case p.Y-b.Top <= HotZone:
			return pl, gestureResizeTop, true
		case b.Top+b.Height-p.Y <= HotZone:
			return pl, gestureResizeBottom, true
		default:
			return pl, gestureMove, true
		}
	}
	return Placement{}, 0, false
}

// PointerDown starts a gesture. It reports false when nothing starts: another gesture is active,
// the point is outside the grid, or a placed slot was hit outside of edit mode.
func (e *Editor) PointerDown(p Pointer) bool {
	if e.active != nil {
		return false
	}
	if pl, kind, ok := e.hit(p); ok {
		if !e.board.Editing() {
			return false
		}
		e.active = &gesture{kind: kind, origin: p, target: pl, box: pl.Box}
		return true
	}
	cell, ok := e.grid.CellAt(p.X, p.Y)
	if !ok {
		return false
	}
	e.active = &gesture{kind: gestureCreate, origin: p, from: cell, to: cell}
	return true
}

// PointerMove follows the pointer: a selection grows vertically, a dragged slot follows the pointer delta unsnapped.
func (e *Editor) PointerMove(p Pointer) {
	g := e.active
	if g == nil {
		return
	}
	dx, dy := p.X-g.origin.X, p.Y-g.origin.Y
	orig := g.target.Box
	switch g.kind {
	case gestureCreate:
		cell, ok := e.grid.CellAt(p.X, p.Y)
		if !ok {
			return
		}
		if cell.Day != g.from.Day || cell.TeacherID != g.from.TeacherID {
			g.spans = true
			return
		}
		g.to = cell
	case gestureMove:
		g.box = Box{Left: orig.Left + dx, Top: orig.Top + dy, Width: orig.Width, Height: orig.Height}
	case gestureResizeTop:
		top := orig.Top + dy
		g.box = Box{Left: orig.Left, Top: top, Width: orig.Width, Height: orig.Top + orig.Height - top}
	case gestureResizeBottom:
		g.box = Box{Left: orig.Left, Top: orig.Top, Width: orig.Width, Height: orig.Height + dy}
	}
}

// PointerUp ends the gesture. Conflicting changes are reverted entirely and reported in the Result.
func (e *Editor) PointerUp(p Pointer) Result {
	if e.active == nil {
		return Result{Kind: ResultNone}
	}
	e.PointerMove(p)
	g := e.active
	e.active = nil

	switch g.kind {
	case gestureCreate:
		return e.finishCreate(g, p.Multi)
	case gestureMove:
		return e.finishMove(g)
	default:
		return e.finishResize(g)
	}
}

func (e *Editor) finishCreate(g *gesture, multi bool) Result {
	if g.spans {
		return conflictResult(errCrossColumn)
	}
	e.active = g
	sel := e.selection()
	e.active = nil

	classrooms := e.board.Classrooms()
	if err := checkSlot(classrooms, e.board.teacherIndex(), sel.Slot, sel.TeacherID, "", nil, -1); err != nil {
		return conflictResult(err)
	}
	if !(multi || e.addHours != "") {
		return Result{Kind: ResultNewClassroom, TeacherID: sel.TeacherID, Slot: sel.Slot}
	}

	for _, ps := range e.pending {
		if ps.TeacherID != sel.TeacherID {
			continue
		}
		if s, found := overlapsWithin([]Slot{ps.Slot}, sel.Slot, -1); found {
			return conflictResult(&ConflictError{
				Message: "the selection overlaps a pending lesson on " + s.String(),
				Slot:    sel.Slot,
			})
		}
	}
	e.pending = append(e.pending, sel)
	return Result{Kind: ResultPending, TeacherID: sel.TeacherID, Slot: sel.Slot, ClassroomID: e.addHours}
}

// CommitPending adds every pending slot to a classroom as one edit. Nothing is added on conflict
// and the batch is kept so that it can be corrected or discarded.
func (e *Editor) CommitPending(classroomID string) error {
	if classroomID == "" {
		classroomID = e.addHours
	}
	if len(e.pending) == 0 {
		return nil
	}
	slots := make([]Slot, 0, len(e.pending))
	for _, ps := range e.pending {
		slots = append(slots, ps.Slot)
	}
	if err := e.board.AddSlots(classroomID, slots...); err != nil {
		return err
	}
	e.pending = nil
	return nil
}

func (e *Editor) finishMove(g *gesture) Result {
	orig := g.target.Slot
	start, end, ok := orig.Range()
	if !ok {
		return conflictResult(invalidRange(orig))
	}
	cell, ok := e.grid.Snap(g.box.Left, g.box.Top)
	if !ok {
		return Result{Kind: ResultNone}
	}
	newStart := e.grid.RowTime(cell.Row)
	slot := Slot{Day: cell.Day, Start: newStart.String(), End: (newStart + end - start).String()}
	if slot == orig && cell.TeacherID == g.target.TeacherID {
		return Result{Kind: ResultNone}
	}
	if newStart+end-start > e.grid.RowTime(e.grid.Rows()) {
		return conflictResult(&ConflictError{Message: "the lesson would end after the last hour of the day", Slot: slot})
	}
	if err := e.board.SetSlot(g.target.ClassroomID, g.target.SlotIndex, slot, cell.TeacherID); err != nil {
		return conflictResult(err)
	}
	return Result{Kind: ResultMoved, ClassroomID: g.target.ClassroomID, TeacherID: cell.TeacherID, Slot: slot}
}

func (e *Editor) finishResize(g *gesture) Result {
	slot := g.target.Slot
	if g.kind == gestureResizeTop {
		slot.Start = e.grid.RowTime(e.grid.SnapRow(g.box.Top)).String()
	} else {
		slot.End = e.grid.RowTime(e.grid.SnapRow(g.box.Top + g.box.Height)).String()
	}
	if slot == g.target.Slot {
		return Result{Kind: ResultNone}
	}
	if err := e.board.SetSlot(g.target.ClassroomID, g.target.SlotIndex, slot, g.target.TeacherID); err != nil {
		return conflictResult(err)
	}
	return Result{Kind: ResultResized, ClassroomID: g.target.ClassroomID, TeacherID: g.target.TeacherID, Slot: slot}
}
