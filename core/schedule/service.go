package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/CSMathematics/student-management-sub000/core"
)

var newIDFunc = uuid.NewString

type (
	// Recorder counts schedule saves.
	Recorder interface {
		ScheduleSaved(writes int)
		ConflictRejected()
	}

	Service struct {
		store    core.Store
		logger   core.Logger
		recorder Recorder
	}
)

type nopRecorder struct{}

func (nopRecorder) ScheduleSaved(int) {}
func (nopRecorder) ConflictRejected() {}

// NewService creates a schedule Service. recorder may be nil.
func NewService(store core.Store, logger core.Logger, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{store: store, logger: logger, recorder: recorder}
}

// Load fetches every classroom and teacher.
func (svc *Service) Load(ctx context.Context) ([]Classroom, []Teacher, error) {
	recs, err := svc.store.GetAll(ctx, core.CollClassrooms)
	if err != nil {
		return nil, nil, errors.Wrap(err, "fetching classrooms")
	}
	classrooms, err := core.DecodeAll[Classroom](recs)
	if err != nil {
		return nil, nil, err
	}
	if recs, err = svc.store.GetAll(ctx, core.CollTeachers); err != nil {
		return nil, nil, errors.Wrap(err, "fetching teachers")
	}
	teachers, err := core.DecodeAll[Teacher](recs)
	if err != nil {
		return nil, nil, err
	}
	return classrooms, teachers, nil
}

// NewBoard returns a Board holding the stored classrooms and teachers.
func (svc *Service) NewBoard(ctx context.Context) (*Board, error) {
	classrooms, teachers, err := svc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewBoard(classrooms, teachers), nil
}

// Subscribe keeps the canonical classrooms and the teachers of board in sync with the store until ctx is done.
func (svc *Service) Subscribe(ctx context.Context, board *Board) (func(), error) {
	unsubClassrooms, err := svc.store.Subscribe(ctx, core.CollClassrooms, nil, func(recs []core.Record, err error) {
		if err != nil {
			svc.logger.Error("schedule: classrooms subscription", err)
			return
		}
		classrooms, err := core.DecodeAll[Classroom](recs)
		if err != nil {
			svc.logger.Error("schedule: decoding classrooms", err)
			return
		}
		board.SetClassrooms(classrooms)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to classrooms")
	}
	unsubTeachers, err := svc.store.Subscribe(ctx, core.CollTeachers, nil, func(recs []core.Record, err error) {
		if err != nil {
			svc.logger.Error("schedule: teachers subscription", err)
			return
		}
		teachers, err := core.DecodeAll[Teacher](recs)
		if err != nil {
			svc.logger.Error("schedule: decoding teachers", err)
			return
		}
		board.SetTeachers(teachers)
	})
	if err != nil {
		unsubClassrooms()
		return nil, errors.Wrap(err, "subscribing to teachers")
	}
	return func() {
		unsubClassrooms()
		unsubTeachers()
	}, nil
}

// Save validates the draft of board and writes its changes in one atomic batch.
// The board leaves edit mode only once the batch is written.
func (svc *Service) Save(ctx context.Context, board *Board) (int, error) {
	ops, err := board.Changes()
	if err != nil {
		return 0, err
	}
	if err = Validate(board.Classrooms(), board.teacherIndex()); err != nil {
		svc.recorder.ConflictRejected()
		return 0, err
	}
	if len(ops) > 0 {
		if err = svc.store.BatchWrite(ctx, ops); err != nil {
			return 0, errors.Wrap(err, "saving schedule")
		}
		svc.logger.Info(fmt.Sprintf("schedule: %d classroom(s) changed\n%s", len(ops), changeLog(board.Original(), ops)))
	}
	board.Commit()
	svc.recorder.ScheduleSaved(len(ops))
	return len(ops), nil
}

// SaveClassrooms replaces the stored classrooms by submitted. New classrooms get an id;
// classrooms missing from submitted are deleted. When baseIDs lists the classrooms the
// client loaded, only those can be deleted and any classroom stored since is kept.
func (svc *Service) SaveClassrooms(ctx context.Context, submitted []Classroom, baseIDs ...string) (int, error) {
	board, err := svc.NewBoard(ctx)
	if err != nil {
		return 0, err
	}
	draft := cloneAll(submitted)
	seen := make(map[string]struct{}, len(draft)+len(baseIDs))
	for i := range draft {
		if draft[i].ID == "" {
			draft[i].ID = newIDFunc()
		}
		seen[draft[i].ID] = struct{}{}
	}
	if len(baseIDs) > 0 {
		for _, id := range baseIDs {
			seen[id] = struct{}{}
		}
		for _, c := range board.Original() {
			if _, ok := seen[c.ID]; !ok {
				draft = append(draft, c)
			}
		}
	}
	board.BeginEdit()
	if err = board.ReplaceDraft(draft); err != nil {
		return 0, err
	}
	return svc.Save(ctx, board)
}

// CheckOverlap reports whether the slot would double book teacherID against the stored classrooms.
func (svc *Service) CheckOverlap(ctx context.Context, day Day, start, end, teacherID, excludeClassroomID string) (bool, error) {
	classrooms, _, err := svc.Load(ctx)
	if err != nil {
		return false, err
	}
	return HasOverlap(classrooms, day, start, end, teacherID, excludeClassroomID), nil
}

// Layout positions the stored classrooms on a grid showing days and the teachers with the given ids.
// Empty filters show every day and every teacher.
func (svc *Service) Layout(ctx context.Context, cfg GridConfig, days []Day, teacherIDs []string, viewportWidth float64) (*Grid, []Placement, error) {
	classrooms, teachers, err := svc.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(days) == 0 {
		days = Days
	}
	if len(teacherIDs) > 0 {
		visible := make(map[string]struct{}, len(teacherIDs))
		for _, id := range teacherIDs {
			visible[id] = struct{}{}
		}
		shown := teachers[:0]
		for _, t := range teachers {
			if _, ok := visible[t.ID]; ok {
				shown = append(shown, t)
			}
		}
		teachers = shown
	}
	grid := NewGrid(cfg, days, teachers, viewportWidth)
	return grid, grid.Layout(classrooms), nil
}

// changeLog renders a unified diff of every classroom touched by ops.
func changeLog(original []Classroom, ops []core.Operation) string {
	byID := make(map[string]Classroom, len(original))
	for _, c := range original {
		byID[c.ID] = c
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })

	var sb strings.Builder
	for _, op := range ops {
		var before, after string
		if c, ok := byID[op.ID]; ok {
			before = indent(c)
		}
		if op.Kind != core.OpDelete {
			after = indent(op.Data)
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(before),
			B:        difflib.SplitLines(after),
			FromFile: "classrooms/" + op.ID,
			ToFile:   "classrooms/" + op.ID,
			Context:  1,
		})
		if err != nil {
			diff = fmt.Sprintf("%s classrooms/%s\n", op.Kind, op.ID)
		}
		sb.WriteString(diff)
	}
	return sb.String()
}

func indent(v interface{}) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v\n", v)
	}
	return string(raw) + "\n"
}
