package achievement

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/level"
	"github.com/CSMathematics/student-management-sub000/core/student"
)

var (
	nowFunc   = time.Now
	newIDFunc = uuid.NewString
)

const badgeEarnedTemplate = "badge_earned"

type (
	// Recorder counts evaluation outcomes.
	Recorder interface {
		BadgesAwarded(badgeIDs ...string)
		EvaluationFailed()
	}

	Service struct {
		store    core.Store
		blobs    core.BlobStore
		mailSvc  core.EmailService
		logger   core.Logger
		recorder Recorder
		levels   level.Table
	}

	// BadgeNotification is the data of the "badge earned" email.
	BadgeNotification struct {
		Name       string
		Badges     []NotifiedBadge
		TotalXP    int
		Level      int
		LevelTitle string
	}

	NotifiedBadge struct {
		Title   string
		XP      int
		Details string
	}

	// EarnedView is an EarnedBadge joined with its catalog entry.
	EarnedView struct {
		EarnedBadge
		Badge Badge `json:"badge"`
	}
)

type nopRecorder struct{}

func (nopRecorder) BadgesAwarded(...string) {}
func (nopRecorder) EvaluationFailed()       {}

// NewService creates an achievement Service. recorder may be nil.
func NewService(
	store core.Store,
	blobs core.BlobStore,
	mailSvc core.EmailService,
	logger core.Logger,
	recorder Recorder,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		store:    store,
		blobs:    blobs,
		mailSvc:  mailSvc,
		logger:   logger,
		recorder: recorder,
		levels:   level.Default,
	}
}

func byStudent(studentID string) core.Filter {
	return core.Eq("studentId", studentID)
}

func getAll[T any](ctx context.Context, store core.Store, coll string, filters ...core.Filter) ([]T, error) {
	recs, err := store.GetAll(ctx, coll, filters...)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", coll)
	}
	return core.DecodeAll[T](recs)
}

// LoadInput reads everything the engine needs about a student. Evaluation instant is now.
func (svc *Service) LoadInput(ctx context.Context, studentID string) (Input, error) {
	in := Input{StudentID: studentID, Now: nowFunc().UTC()}
	var err error

	if in.Grades, err = getAll[Grade](ctx, svc.store, core.CollGrades, byStudent(studentID)); err != nil {
		return Input{}, err
	}
	if in.Absences, err = getAll[Absence](ctx, svc.store, core.CollAbsences, byStudent(studentID)); err != nil {
		return Input{}, err
	}
	if in.Submissions, err = getAll[Submission](ctx, svc.store, core.CollSubmissions, byStudent(studentID)); err != nil {
		return Input{}, err
	}
	if in.Earned, err = getAll[EarnedBadge](ctx, svc.store, core.BadgesPath(studentID)); err != nil {
		return Input{}, err
	}

	assignmentIDs := make([]string, 0, len(in.Submissions))
	for _, sub := range in.Submissions {
		assignmentIDs = append(assignmentIDs, sub.AssignmentID)
	}
	recs, err := core.GetAllByIDs(ctx, svc.store, core.CollAssignments, assignmentIDs)
	if err != nil {
		return Input{}, err
	}
	if in.Assignments, err = core.DecodeAll[Assignment](recs); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Evaluate runs the engine for a student and persists the new badges together with the
// student's new XP total in one atomic batch. Nothing is written when no badge is earned.
func (svc *Service) Evaluate(ctx context.Context, studentID string) ([]EarnedBadge, error) {
	earned, err := svc.evaluate(ctx, studentID)
	if err != nil {
		svc.recorder.EvaluationFailed()
		svc.logger.Error(fmt.Sprintf("evaluating achievements of student %s: %v", studentID, err), err)
		return nil, err
	}
	return earned, nil
}

func (svc *Service) evaluate(ctx context.Context, studentID string) ([]EarnedBadge, error) {
	std, err := svc.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	in, err := svc.LoadInput(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "loading achievement input")
	}

	earned := Evaluate(in)
	if len(earned) == 0 {
		return nil, nil
	}

	totalXP := TotalXP(in.Earned, earned)
	ops := make([]core.Operation, 0, len(earned)+1)
	badgePath := core.BadgesPath(studentID)
	for i := range earned {
		earned[i].ID = newIDFunc()
		ops = append(ops, core.Operation{Kind: core.OpCreate, Path: badgePath, ID: earned[i].ID, Data: earned[i]})
	}
	ops = append(ops, core.Operation{
		Kind: core.OpUpdate,
		Path: core.CollStudents,
		ID:   studentID,
		Data: map[string]interface{}{"totalXp": totalXP},
	})
	if err = svc.store.BatchWrite(ctx, ops); err != nil {
		return nil, errors.Wrap(err, "saving earned badges")
	}

	ids := make([]string, 0, len(earned))
	for _, eb := range earned {
		ids = append(ids, eb.BadgeID)
	}
	svc.recorder.BadgesAwarded(ids...)
	svc.logger.Info(fmt.Sprintf("student %s earned %d badge(s), total xp %d", studentID, len(earned), totalXP))

	std.TotalXP = totalXP
	svc.notify(std, earned)
	return earned, nil
}

// Trigger evaluates a student after one of their records changed. Failures are logged, never returned:
// the action that caused the evaluation already succeeded.
func (svc *Service) Trigger(ctx context.Context, studentID string) {
	_, _ = svc.Evaluate(ctx, studentID)
}

// EvaluateAll evaluates every student, continuing past failures. It returns the number of badges awarded.
func (svc *Service) EvaluateAll(ctx context.Context) (int, error) {
	recs, err := svc.store.GetAll(ctx, core.CollStudents)
	if err != nil {
		return 0, errors.Wrap(err, "listing students")
	}

	var awarded, failed int
	for _, rec := range recs {
		if err = ctx.Err(); err != nil {
			return awarded, err
		}
		earned, err := svc.Evaluate(ctx, rec.ID)
		if err != nil {
			failed++
			continue
		}
		awarded += len(earned)
	}
	if failed > 0 {
		return awarded, errors.Errorf("%d of %d evaluations failed", failed, len(recs))
	}
	return awarded, nil
}

// Earned lists a student's badges, most recent first.
func (svc *Service) Earned(ctx context.Context, studentID string) ([]EarnedView, error) {
	earned, err := getAll[EarnedBadge](ctx, svc.store, core.BadgesPath(studentID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(earned, func(i, j int) bool { return earned[i].EarnedAt.After(earned[j].EarnedAt) })

	views := make([]EarnedView, 0, len(earned))
	for _, eb := range earned {
		b, ok := LookupBadge(eb.BadgeID)
		if !ok {
			b = Badge{ID: eb.BadgeID, Title: eb.BadgeID}
		}
		views = append(views, EarnedView{EarnedBadge: eb, Badge: b})
	}
	return views, nil
}

// MarkSeen flags the given earned badges (all unseen ones when none given) as seen.
func (svc *Service) MarkSeen(ctx context.Context, studentID string, earnedIDs ...string) error {
	badgePath := core.BadgesPath(studentID)
	if len(earnedIDs) == 0 {
		earned, err := getAll[EarnedBadge](ctx, svc.store, badgePath, core.Eq("seenByUser", false))
		if err != nil {
			return err
		}
		for _, eb := range earned {
			earnedIDs = append(earnedIDs, eb.ID)
		}
	}
	if len(earnedIDs) == 0 {
		return nil
	}

	ops := make([]core.Operation, 0, len(earnedIDs))
	for _, id := range core.UniqueStrings(earnedIDs) {
		ops = append(ops, core.Operation{
			Kind: core.OpUpdate,
			Path: badgePath,
			ID:   id,
			Data: map[string]interface{}{"seenByUser": true},
		})
	}
	return errors.Wrap(svc.store.BatchWrite(ctx, ops), "marking badges seen")
}

// RecomputeTotalXP recomputes a student's XP from the current catalog and stores it.
func (svc *Service) RecomputeTotalXP(ctx context.Context, studentID string) (int, error) {
	if _, err := svc.getStudent(ctx, studentID); err != nil {
		return 0, err
	}
	earned, err := getAll[EarnedBadge](ctx, svc.store, core.BadgesPath(studentID))
	if err != nil {
		return 0, err
	}
	total := TotalXP(earned)
	err = svc.store.Update(ctx, core.CollStudents, studentID, map[string]interface{}{"totalXp": total})
	return total, errors.Wrapf(err, "updating xp of student %s", studentID)
}

// Progress returns the level of a student; XP is computed from the live catalog, not the cached total.
func (svc *Service) Progress(ctx context.Context, studentID string) (level.Progress, error) {
	if _, err := svc.getStudent(ctx, studentID); err != nil {
		return level.Progress{}, err
	}
	earned, err := getAll[EarnedBadge](ctx, svc.store, core.BadgesPath(studentID))
	if err != nil {
		return level.Progress{}, err
	}
	return svc.levels.Compute(TotalXP(earned)), nil
}

// RecordGrade stores a new grade and triggers the student's evaluation.
func (svc *Service) RecordGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	g := ng.grade()
	id, err := svc.store.Create(ctx, core.CollGrades, g)
	if err != nil {
		return Grade{}, errors.Wrap(err, "creating grade")
	}
	g.ID = id
	svc.Trigger(ctx, g.StudentID)
	return g, nil
}

// RecordAbsence stores a new absence and triggers the student's evaluation.
func (svc *Service) RecordAbsence(ctx context.Context, na NewAbsence) (Absence, error) {
	a := na.absence()
	id, err := svc.store.Create(ctx, core.CollAbsences, a)
	if err != nil {
		return Absence{}, errors.Wrap(err, "creating absence")
	}
	a.ID = id
	svc.Trigger(ctx, a.StudentID)
	return a, nil
}

// RecordSubmission uploads the submitted file, stores the submission and triggers the student's evaluation.
// The upload is removed again when the submission cannot be stored.
func (svc *Service) RecordSubmission(ctx context.Context, ns NewSubmission, file io.Reader) (Submission, error) {
	if _, err := svc.store.Get(ctx, core.CollAssignments, ns.AssignmentID); err != nil {
		if core.IsNotFound(err) {
			return Submission{}, core.NewValidationError(nil, core.FieldError{Field: "assignmentId", Error: "assignment not found"})
		}
		return Submission{}, errors.Wrap(err, "getting assignment")
	}

	blobPath := path.Join("submissions", ns.AssignmentID, ns.StudentID, path.Base(ns.FileName))
	ref, err := svc.blobs.Upload(ctx, blobPath, file)
	if err != nil {
		return Submission{}, errors.Wrap(err, "uploading submission")
	}

	sub := Submission{
		StudentID:    ns.StudentID,
		AssignmentID: ns.AssignmentID,
		SubmittedAt:  nowFunc().UTC(),
		StoragePath:  ref,
	}
	id, err := svc.store.Create(ctx, core.CollSubmissions, sub)
	if err != nil {
		if dErr := svc.blobs.Delete(ctx, ref); dErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing orphan upload %s: %v", ref, dErr), dErr)
		}
		return Submission{}, errors.Wrap(err, "creating submission")
	}
	sub.ID = id
	svc.Trigger(ctx, sub.StudentID)
	return sub, nil
}

func (svc *Service) getStudent(ctx context.Context, studentID string) (student.Student, error) {
	rec, err := svc.store.Get(ctx, core.CollStudents, studentID)
	if err != nil {
		return student.Student{}, errors.Wrapf(err, "getting student %s", studentID)
	}
	var std student.Student
	if err = rec.Decode(&std); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (svc *Service) notify(std student.Student, earned []EarnedBadge) {
	if std.Email == "" || svc.mailSvc == nil {
		return
	}
	progress := svc.levels.Compute(std.TotalXP)
	data := BadgeNotification{
		Name:       std.FullName(),
		TotalXP:    std.TotalXP,
		Level:      progress.Current.Level,
		LevelTitle: progress.Current.Title,
	}
	for _, eb := range earned {
		b, _ := LookupBadge(eb.BadgeID)
		data.Badges = append(data.Badges, NotifiedBadge{Title: b.Title, XP: b.XP, Details: eb.Details})
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: data.Name, Address: std.Email}},
		Subject:      "New badges earned",
		TemplateName: badgeEarnedTemplate,
		TemplateData: data,
	})
}
