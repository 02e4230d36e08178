package scoring

import (
	"math"
	"time"
)

// Band is one contiguous score range with its display title. Bands are
// ascending and non-overlapping; the last band is unbounded.
type Band struct {
	Level    int
	MinScore int
	Title    string
}

var bands = []Band{
	{Level: 1, MinScore: 0, Title: "Mentiroso Iniciante"},
	{Level: 2, MinScore: 100, Title: "Mentiroso Aprendiz"},
	{Level: 3, MinScore: 300, Title: "Mentiroso Amador"},
	{Level: 4, MinScore: 600, Title: "Mentiroso Profissional"},
	{Level: 5, MinScore: 1000, Title: "Mentiroso Expert"},
	{Level: 6, MinScore: 1500, Title: "Mentiroso Mestre"},
	{Level: 7, MinScore: 2250, Title: "Mentiroso Lendario"},
	{Level: 8, MinScore: 3000, Title: "Mentiroso Epico"},
	{Level: 9, MinScore: 4000, Title: "Mentiroso Mitico"},
	{Level: 10, MinScore: 5000, Title: "Rei da Mentira"},
}

// Level is the derived view of a cumulative score.
type Level struct {
	Level           int    `json:"level"`
	Title           string `json:"title"`
	ProgressPercent int    `json:"progress_percent"`
}

// CalculateLevel maps a cumulative score into its band. Progress is the
// position inside the band relative to the next band's floor; the unbounded
// top band has no next floor so its progress is 0.
func CalculateLevel(score int) Level {
	if score < 0 {
		score = 0
	}

	idx := 0
	for i := range bands {
		if score >= bands[i].MinScore {
			idx = i
		}
	}
	band := bands[idx]

	if idx == len(bands)-1 {
		return Level{Level: band.Level, Title: band.Title, ProgressPercent: 0}
	}

	next := bands[idx+1]
	progress := int(math.Round(100 * float64(score-band.MinScore) / float64(next.MinScore-band.MinScore)))
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return Level{Level: band.Level, Title: band.Title, ProgressPercent: progress}
}

const (
	proMultiplier     = 1.5
	weekendMultiplier = 1.2
)

// ApplyScore returns the effective points for an action. PRO and weekend
// multipliers compose multiplicatively and also amplify penalties.
func ApplyScore(points int, isPro bool, at time.Time) int {
	value := float64(points)
	if isPro {
		value *= proMultiplier
	}
	if wd := at.Weekday(); wd == time.Saturday || wd == time.Sunday {
		value *= weekendMultiplier
	}
	return int(math.Round(value))
}
