package achievement

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Input is everything the engine needs to evaluate one student.
// Records belonging to other students are ignored.
type Input struct {
	StudentID   string
	Grades      []Grade
	Absences    []Absence
	Submissions []Submission
	Assignments []Assignment
	Earned      []EarnedBadge
	Now         time.Time
}

// scoredGrade is a Grade whose value parsed successfully.
type scoredGrade struct {
	Grade
	value float64
}

type evaluator struct {
	now         time.Time
	grades      []scoredGrade // chronological
	firstGrade  time.Time
	absences    []Absence // chronological
	submissions []Submission
	assignments map[string]Assignment

	prior     []EarnedBadge
	keyed     map[string]struct{} // repeatable: badgeID + source
	once      map[string]struct{} // non-repeatable: badgeID
	mastered  map[string]struct{} // subject_master: subject
	legacySub []string            // subject_master details without subject key
	out       []EarnedBadge
}

type rule func(ev *evaluator)

var rules = []rule{
	gradeThresholdRules,
	submissionRules,
	subjectTrendRules,
	subjectAggregateRules,
	knowledgeHatTrickRule,
	overallRules,
	attendanceRules,
}

// Evaluate runs every badge rule over the student's records and returns the badges
// earned that are not already in in.Earned. It is a full re-scan: calling it again
// with its own output added to in.Earned returns nothing.
func Evaluate(in Input) []EarnedBadge {
	ev := newEvaluator(in)
	for _, r := range rules {
		r(ev)
	}
	return ev.out
}

func newEvaluator(in Input) *evaluator {
	ev := &evaluator{
		now:         in.Now,
		assignments: make(map[string]Assignment, len(in.Assignments)),
		prior:       in.Earned,
		keyed:       make(map[string]struct{}),
		once:        make(map[string]struct{}),
		mastered:    make(map[string]struct{}),
	}
	if ev.now.IsZero() {
		ev.now = time.Now()
	}

	for _, g := range in.Grades {
		if g.StudentID != in.StudentID {
			continue
		}
		if ev.firstGrade.IsZero() || g.Date.Before(ev.firstGrade) {
			ev.firstGrade = g.Date
		}
		if v, ok := g.Grade.Value(); ok {
			ev.grades = append(ev.grades, scoredGrade{Grade: g, value: v})
		}
	}
	sort.SliceStable(ev.grades, func(i, j int) bool {
		if !ev.grades[i].Date.Equal(ev.grades[j].Date) {
			return ev.grades[i].Date.Before(ev.grades[j].Date)
		}
		return ev.grades[i].ID < ev.grades[j].ID
	})

	for _, a := range in.Absences {
		if a.StudentID == in.StudentID {
			ev.absences = append(ev.absences, a)
		}
	}
	sort.SliceStable(ev.absences, func(i, j int) bool { return ev.absences[i].Date.Before(ev.absences[j].Date) })

	for _, s := range in.Submissions {
		if s.StudentID == in.StudentID {
			ev.submissions = append(ev.submissions, s)
		}
	}
	sort.SliceStable(ev.submissions, func(i, j int) bool {
		return ev.submissions[i].SubmittedAt.Before(ev.submissions[j].SubmittedAt)
	})

	for _, a := range in.Assignments {
		ev.assignments[a.ID] = a
	}

	for _, eb := range in.Earned {
		ev.remember(eb)
		if eb.BadgeID == SubjectMaster && eb.SubjectKey == "" {
			ev.legacySub = append(ev.legacySub, eb.Details)
		}
	}
	return ev
}

func dedupKey(badgeID, source string) string {
	return badgeID + "\x00" + source
}

func (ev *evaluator) remember(eb EarnedBadge) {
	ev.keyed[dedupKey(eb.BadgeID, eb.SourceDocumentID)] = struct{}{}
	ev.once[eb.BadgeID] = struct{}{}
	if eb.SubjectKey != "" {
		ev.mastered[eb.SubjectKey] = struct{}{}
	}
}

// has reports whether awarding badgeID for source (or subject) would duplicate an existing award.
func (ev *evaluator) has(b Badge, source, subject string) bool {
	if b.ID == SubjectMaster {
		if _, ok := ev.mastered[subject]; ok {
			return true
		}
		// awards stored before subject keys existed only name the subject in their details
		for _, details := range ev.legacySub {
			if strings.Contains(details, subject) {
				return true
			}
		}
		return false
	}
	if b.Repeatable {
		_, ok := ev.keyed[dedupKey(b.ID, source)]
		return ok
	}
	_, ok := ev.once[b.ID]
	return ok
}

func (ev *evaluator) award(badgeID, source, subject, details string) {
	b, ok := LookupBadge(badgeID)
	if !ok || ev.has(b, source, subject) {
		return
	}
	eb := EarnedBadge{
		BadgeID:          badgeID,
		EarnedAt:         ev.now,
		Details:          details,
		SourceDocumentID: source,
		SubjectKey:       subject,
	}
	ev.remember(eb)
	ev.out = append(ev.out, eb)
}

// lastAward returns the most recent award of badgeID, previous or from this run.
func (ev *evaluator) lastAward(badgeID string) (EarnedBadge, bool) {
	var (
		last  EarnedBadge
		found bool
	)
	for _, list := range [][]EarnedBadge{ev.prior, ev.out} {
		for _, eb := range list {
			if eb.BadgeID == badgeID && (!found || eb.EarnedAt.After(last.EarnedAt)) {
				last, found = eb, true
			}
		}
	}
	return last, found
}

// bySubject groups the chronological grades per subject; subjects are returned sorted.
func (ev *evaluator) bySubject() ([]string, map[string][]scoredGrade) {
	groups := make(map[string][]scoredGrade)
	for _, g := range ev.grades {
		groups[g.Subject] = append(groups[g.Subject], g)
	}
	subjects := make([]string, 0, len(groups))
	for s := range groups {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects, groups
}

func mean(grades []scoredGrade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.value
	}
	return sum / float64(len(grades))
}

func fmtScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
