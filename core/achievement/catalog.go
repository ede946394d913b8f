package achievement

// Badge categories
const (
	CategoryGrade      = "grade"
	CategorySubmission = "submission"
	CategoryTrend      = "trend"
	CategorySubject    = "subject"
	CategoryOverall    = "overall"
	CategoryAttendance = "attendance"
)

// Badge ids; stable, never rename.
const (
	HighFlyer              = "high_flyer"
	FlawlessVictory        = "flawless_victory"
	ActiveCitizen          = "active_citizen"
	TeamPlayer             = "team_player"
	HomeworkHero           = "homework_hero"
	SilverTongue           = "silver_tongue"
	OnTimeSubmitter        = "on_time_submitter"
	EarlyBird              = "early_bird"
	FirstSubmission        = "first_submission"
	Bookworm               = "bookworm"
	ComebackKing           = "comeback_king"
	MarathonRunner         = "marathon_runner"
	SubjectMaster          = "subject_master"
	KnowledgeHatTrick      = "knowledge_hat_trick"
	ConsistentPerformer    = "consistent_performer"
	FirstSteps             = "first_steps"
	PerfectStreak          = "perfect_streak"
	AllRounder             = "all_rounder"
	PerfectAttendanceMonth = "perfect_attendance_month"
	IronWill               = "iron_will"
)

// Badge is a catalog entry. The catalog lives in code; changing an XP value
// changes every total recomputed afterwards.
type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
	Category    string `json:"category"`
	Repeatable  bool   `json:"repeatable"`
}

var Catalog = []Badge{
	{ID: HighFlyer, Title: "High Flyer", Description: "Score 19 or more", XP: 50, Category: CategoryGrade, Repeatable: true},
	{ID: FlawlessVictory, Title: "Flawless Victory", Description: "Score a perfect 20", XP: 100, Category: CategoryGrade, Repeatable: true},
	{ID: ActiveCitizen, Title: "Active Citizen", Description: "Participation grade above 18", XP: 30, Category: CategoryGrade, Repeatable: true},
	{ID: TeamPlayer, Title: "Team Player", Description: "Project grade above 17", XP: 40, Category: CategoryGrade, Repeatable: true},
	{ID: HomeworkHero, Title: "Homework Hero", Description: "Homework grade of 18 or more", XP: 25, Category: CategoryGrade, Repeatable: true},
	{ID: SilverTongue, Title: "Silver Tongue", Description: "Oral grade of 18 or more", XP: 25, Category: CategoryGrade, Repeatable: true},
	{ID: OnTimeSubmitter, Title: "On Time", Description: "Submit an assignment at least 48 hours early", XP: 20, Category: CategorySubmission, Repeatable: true},
	{ID: EarlyBird, Title: "Early Bird", Description: "Submit 5 assignments at least 24 hours early", XP: 75, Category: CategorySubmission},
	{ID: FirstSubmission, Title: "First Delivery", Description: "Submit your first assignment", XP: 10, Category: CategorySubmission},
	{ID: Bookworm, Title: "Bookworm", Description: "Submit 10 assignments", XP: 50, Category: CategorySubmission},
	{ID: ComebackKing, Title: "Comeback King", Description: "Improve by 5 points or more on the previous grade of a subject", XP: 60, Category: CategoryTrend, Repeatable: true},
	{ID: MarathonRunner, Title: "Marathon Runner", Description: "Three consecutive grades above 15 in a subject", XP: 80, Category: CategoryTrend, Repeatable: true},
	{ID: SubjectMaster, Title: "Subject Master", Description: "Average above 18 over at least 3 grades of a subject", XP: 150, Category: CategorySubject},
	{ID: KnowledgeHatTrick, Title: "Knowledge Hat Trick", Description: "Grades of 18 or more in 3 different subjects within 30 days", XP: 120, Category: CategorySubject},
	{ID: ConsistentPerformer, Title: "Consistent Performer", Description: "Overall average above 15 over at least 5 grades", XP: 100, Category: CategoryOverall},
	{ID: FirstSteps, Title: "First Steps", Description: "Receive your first grade", XP: 10, Category: CategoryOverall},
	{ID: PerfectStreak, Title: "Perfect Streak", Description: "Five grades in a row of 17 or more", XP: 90, Category: CategoryOverall},
	{ID: AllRounder, Title: "All-Rounder", Description: "Average of 14 or more in at least 5 subjects", XP: 150, Category: CategoryOverall},
	{ID: PerfectAttendanceMonth, Title: "Perfect Attendance", Description: "More than 30 days without an unjustified absence", XP: 80, Category: CategoryAttendance, Repeatable: true},
	{ID: IronWill, Title: "Iron Will", Description: "No unjustified absence for more than 90 days", XP: 200, Category: CategoryAttendance},
}

var catalogIndex = indexCatalog(Catalog)

func indexCatalog(badges []Badge) map[string]Badge {
	idx := make(map[string]Badge, len(badges))
	for _, b := range badges {
		idx[b.ID] = b
	}
	return idx
}

// LookupBadge returns the catalog entry for id.
func LookupBadge(id string) (Badge, bool) {
	b, ok := catalogIndex[id]
	return b, ok
}

// TotalXP sums the catalog XP of every earned badge; repeatable badges count once per award.
// Unknown (retired) badge ids are worth nothing.
func TotalXP(earned ...[]EarnedBadge) int {
	var total int
	for _, list := range earned {
		for _, eb := range list {
			total += catalogIndex[eb.BadgeID].XP
		}
	}
	return total
}
