package achievement

import (
	"fmt"
	"time"
)

const (
	day = 24 * time.Hour

	hatTrickWindow      = 30 * day
	attendanceMonth     = 30 * day
	ironWillPeriod      = 90 * day
	onTimeHours         = 48.0
	earlyHours          = 24.0
	earlyBirdCount      = 5
	bookwormCount       = 10
	comebackJump        = 5.0
	marathonFloor       = 15.0
	marathonLength      = 3
	masterMean          = 18.0
	masterMinGrades     = 3
	hatTrickFloor       = 18.0
	hatTrickSubjects    = 3
	consistentMean      = 15.0
	consistentMinGrades = 5
	streakFloor         = 17.0
	streakLength        = 5
	allRounderMean      = 14.0
	allRounderSubjects  = 5
)

// gradeThresholdRules award repeatable badges for single outstanding grades.
func gradeThresholdRules(ev *evaluator) {
	for _, g := range ev.grades {
		where := fmt.Sprintf("%s in %s on %s", fmtScore(g.value), g.Subject, fmtDate(g.Date))
		if g.value >= 19 {
			ev.award(HighFlyer, g.ID, "", where)
		}
		if g.value == 20 {
			ev.award(FlawlessVictory, g.ID, "", where)
		}
		switch {
		case g.Type == TypeParticipation && g.value > 18:
			ev.award(ActiveCitizen, g.ID, "", "participation "+where)
		case g.Type == TypeProject && g.value > 17:
			ev.award(TeamPlayer, g.ID, "", "project "+where)
		case g.Type == TypeHomework && g.value >= 18:
			ev.award(HomeworkHero, g.ID, "", "homework "+where)
		case g.Type == TypeOral && g.value >= 18:
			ev.award(SilverTongue, g.ID, "", "oral "+where)
		}
	}
}

// submissionRules compare each submission with the due date of its assignment.
func submissionRules(ev *evaluator) {
	if len(ev.submissions) == 0 {
		return
	}
	ev.award(FirstSubmission, ev.submissions[0].ID, "", "first assignment submitted on "+fmtDate(ev.submissions[0].SubmittedAt))
	if len(ev.submissions) >= bookwormCount {
		sub := ev.submissions[bookwormCount-1]
		ev.award(Bookworm, sub.ID, "", fmt.Sprintf("%d assignments submitted", bookwormCount))
	}

	var early int
	for _, sub := range ev.submissions {
		a, ok := ev.assignments[sub.AssignmentID]
		if !ok || a.DueDate.IsZero() {
			continue
		}
		gap := a.DueDate.Sub(sub.SubmittedAt).Hours()
		if gap >= onTimeHours {
			ev.award(OnTimeSubmitter, sub.ID, "", fmt.Sprintf("submitted %.0f hours before the deadline", gap))
		}
		if gap >= earlyHours {
			early++
			if early == earlyBirdCount {
				ev.award(EarlyBird, sub.ID, "", fmt.Sprintf("%d assignments submitted a day early", earlyBirdCount))
			}
		}
	}
}

// subjectTrendRules look at consecutive grades of the same subject.
func subjectTrendRules(ev *evaluator) {
	subjects, groups := ev.bySubject()
	for _, subject := range subjects {
		grades := groups[subject]
		for i := 1; i < len(grades); i++ {
			prev, cur := grades[i-1], grades[i]
			if cur.value >= prev.value+comebackJump {
				ev.award(ComebackKing, cur.ID, "", fmt.Sprintf("%s: %s -> %s", subject, fmtScore(prev.value), fmtScore(cur.value)))
			}
		}
		for i := marathonLength - 1; i < len(grades); i++ {
			all := true
			for _, g := range grades[i-marathonLength+1 : i+1] {
				if g.value <= marathonFloor {
					all = false
					break
				}
			}
			if all {
				ev.award(MarathonRunner, grades[i].ID, "", fmt.Sprintf("%s: %d grades in a row above %s", subject, marathonLength, fmtScore(marathonFloor)))
			}
		}
	}
}

// subjectAggregateRules use the mean grade of every subject.
func subjectAggregateRules(ev *evaluator) {
	subjects, groups := ev.bySubject()
	allRounder := len(subjects) >= allRounderSubjects
	for _, subject := range subjects {
		grades := groups[subject]
		avg := mean(grades)
		if len(grades) >= masterMinGrades && avg > masterMean {
			ev.award(SubjectMaster, grades[len(grades)-1].ID, subject, fmt.Sprintf("Master of %s (average %.2f)", subject, avg))
		}
		if avg < allRounderMean {
			allRounder = false
		}
	}
	if allRounder {
		last := ev.grades[len(ev.grades)-1]
		ev.award(AllRounder, last.ID, "", fmt.Sprintf("average of %s or more in %d subjects", fmtScore(allRounderMean), len(subjects)))
	}
}

// knowledgeHatTrickRule looks for high grades in distinct subjects inside a sliding 30-day window.
func knowledgeHatTrickRule(ev *evaluator) {
	high := make([]scoredGrade, 0, len(ev.grades))
	for _, g := range ev.grades {
		if g.value >= hatTrickFloor {
			high = append(high, g)
		}
	}
	for i := range high {
		subjects := make(map[string]struct{}, hatTrickSubjects)
		for j := i; j < len(high) && high[j].Date.Sub(high[i].Date) <= hatTrickWindow; j++ {
			subjects[high[j].Subject] = struct{}{}
			if len(subjects) >= hatTrickSubjects {
				ev.award(KnowledgeHatTrick, high[j].ID, "", fmt.Sprintf("%d subjects at %s or more between %s and %s",
					hatTrickSubjects, fmtScore(hatTrickFloor), fmtDate(high[i].Date), fmtDate(high[j].Date)))
				return
			}
		}
	}
}

// overallRules consider every grade regardless of subject.
func overallRules(ev *evaluator) {
	if len(ev.grades) == 0 {
		return
	}
	first := ev.grades[0]
	ev.award(FirstSteps, first.ID, "", fmt.Sprintf("first grade: %s in %s", fmtScore(first.value), first.Subject))

	if len(ev.grades) >= consistentMinGrades {
		if avg := mean(ev.grades); avg > consistentMean {
			ev.award(ConsistentPerformer, ev.grades[len(ev.grades)-1].ID, "", fmt.Sprintf("overall average %.2f over %d grades", avg, len(ev.grades)))
		}
	}

	var run int
	for _, g := range ev.grades {
		if g.value < streakFloor {
			run = 0
			continue
		}
		run++
		if run == streakLength {
			ev.award(PerfectStreak, g.ID, "", fmt.Sprintf("%d grades in a row of %s or more", streakLength, fmtScore(streakFloor)))
			return
		}
	}
}

// attendanceRules reward time elapsed without unjustified absences.
// Perfect attendance re-arms only once a new unjustified absence is recorded after its last award.
func attendanceRules(ev *evaluator) {
	var (
		lastAbsence  *Absence
		firstAbsence *Absence
	)
	for i := range ev.absences {
		a := &ev.absences[i]
		if firstAbsence == nil {
			firstAbsence = a
		}
		if !a.IsJustified() {
			lastAbsence = a
		}
	}

	var (
		since  time.Time
		source string
	)
	switch {
	case lastAbsence != nil:
		since, source = lastAbsence.Date, lastAbsence.ID
	case !ev.firstGrade.IsZero():
		since = ev.firstGrade
	}

	if !since.IsZero() && ev.now.Sub(since) > attendanceMonth {
		prev, awarded := ev.lastAward(PerfectAttendanceMonth)
		if !awarded || (lastAbsence != nil && prev.EarnedAt.Before(lastAbsence.Date)) {
			ev.award(PerfectAttendanceMonth, source, "", fmt.Sprintf("%d days without an unjustified absence", int(ev.now.Sub(since)/day)))
		}
	}

	if lastAbsence != nil {
		return
	}
	var start time.Time
	if firstAbsence != nil {
		start = firstAbsence.Date
	} else {
		start = ev.firstGrade
	}
	if !start.IsZero() && ev.now.Sub(start) > ironWillPeriod {
		ev.award(IronWill, "", "", fmt.Sprintf("no unjustified absence since %s", fmtDate(start)))
	}
}
