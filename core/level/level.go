package level

import (
	"github.com/pkg/errors"
)

type Level struct {
	Level      int    `json:"level"`
	Title      string `json:"title"`
	XPRequired int    `json:"xpRequired"`
}

// Progress is a student's standing on a level Table.
type Progress struct {
	Current    Level   `json:"current"`
	Next       Level   `json:"next"`
	TotalXP    int     `json:"totalXp"`
	Percentage float64 `json:"percentage"`
}

// IsMaxLevel reports whether there is no level left to reach.
func (p Progress) IsMaxLevel() bool {
	return p.Next.XPRequired == p.Current.XPRequired
}

// Table is an ordered list of levels with strictly increasing XP thresholds, starting at 0.
type Table []Level

var Default = MustNewTable(
	Level{Level: 1, Title: "Novice", XPRequired: 0},
	Level{Level: 2, Title: "Apprentice", XPRequired: 100},
	Level{Level: 3, Title: "Explorer", XPRequired: 250},
	Level{Level: 4, Title: "Scholar", XPRequired: 500},
	Level{Level: 5, Title: "Achiever", XPRequired: 800},
	Level{Level: 6, Title: "Expert", XPRequired: 1200},
	Level{Level: 7, Title: "Master", XPRequired: 1700},
	Level{Level: 8, Title: "Grandmaster", XPRequired: 2300},
	Level{Level: 9, Title: "Legend", XPRequired: 3000},
	Level{Level: 10, Title: "Mythic", XPRequired: 4000},
)

func NewTable(levels ...Level) (Table, error) {
	if len(levels) == 0 {
		return nil, errors.New("level table is empty")
	}
	if levels[0].XPRequired != 0 {
		return nil, errors.New("first level must require 0 xp")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].XPRequired <= levels[i-1].XPRequired {
			return nil, errors.Errorf("level %d: xp required must be strictly increasing", levels[i].Level)
		}
		if levels[i].Level != levels[i-1].Level+1 {
			return nil, errors.Errorf("level %d: levels must be consecutive", levels[i].Level)
		}
	}
	return Table(levels), nil
}

func MustNewTable(levels ...Level) Table {
	t, err := NewTable(levels...)
	if err != nil {
		panic(err)
	}
	return t
}

// Compute returns the progress for totalXP on the Default table.
func Compute(totalXP int) Progress {
	return Default.Compute(totalXP)
}

// Compute finds the highest level whose threshold is reached and the progress towards the next one.
// At the max level Next equals Current and the percentage saturates at 100.
func (t Table) Compute(totalXP int) Progress {
	current := t[0]
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].XPRequired <= totalXP {
			current = t[i]
			break
		}
	}

	next := current
	for _, lvl := range t {
		if lvl.Level == current.Level+1 {
			next = lvl
			break
		}
	}

	p := Progress{Current: current, Next: next, TotalXP: totalXP}
	if next.XPRequired == current.XPRequired {
		p.Percentage = 100
		return p
	}
	pct := 100 * float64(totalXP-current.XPRequired) / float64(next.XPRequired-current.XPRequired)
	switch {
	case pct < 0: // negative xp
		pct = 0
	case pct > 100:
		pct = 100
	}
	p.Percentage = pct
	return p
}
