// Package analytics derives the progress dashboard from a user's recent
// quiz results.
package analytics

import (
	"sort"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/internal/results"
)

// Subjects always present in the report, even with no attempts.
var CoreSubjects = []string{"Physics", "Chemistry", "Maths"}

type HeatmapCell struct {
	Topic string `json:"topic"`
	Score int    `json:"score"`
}

type DayStat struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	Accuracy  int    `json:"accuracy"`
	Questions int    `json:"questions"`
}

type Report struct {
	TotalQuestions  int                      `json:"total_questions"`
	CorrectAnswers  int                      `json:"correct_answers"`
	Accuracy        int                      `json:"accuracy"`
	Streak          int                      `json:"streak"`
	Rank            string                   `json:"rank"`
	SubjectAccuracy map[string]int           `json:"subject_accuracy"`
	TopicHeatmap    map[string][]HeatmapCell `json:"topic_heatmap"`
	Weekly          []DayStat                `json:"weekly"`
}

// Build expects results newest first; only the first AnalyticsHistoryLimit
// are considered. Days are bucketed in UTC.
func Build(history []models.QuizResult, now time.Time) *Report {
	if len(history) > constants.AnalyticsHistoryLimit {
		history = history[:constants.AnalyticsHistoryLimit]
	}

	report := &Report{
		SubjectAccuracy: make(map[string]int),
		TopicHeatmap:    make(map[string][]HeatmapCell),
	}
	subjects := make(map[string]models.CategoryStat)
	topics := make(map[string]map[string]models.CategoryStat)
	for _, s := range CoreSubjects {
		subjects[s] = models.CategoryStat{}
		topics[s] = make(map[string]models.CategoryStat)
	}

	for _, res := range history {
		report.TotalQuestions += len(res.Questions)
		report.CorrectAnswers += res.CorrectAnswers

		for _, q := range res.Questions {
			stat := subjects[q.Subject]
			stat.Total++
			if q.IsCorrect {
				stat.Correct++
			}
			subjects[q.Subject] = stat

			if q.Topic == "" {
				continue
			}
			if topics[q.Subject] == nil {
				topics[q.Subject] = make(map[string]models.CategoryStat)
			}
			ts := topics[q.Subject][q.Topic]
			ts.Total++
			if q.IsCorrect {
				ts.Correct++
			}
			topics[q.Subject][q.Topic] = ts
		}
	}

	report.Accuracy = results.Accuracy(report.CorrectAnswers, report.TotalQuestions)
	report.Rank = Rank(report.Accuracy)
	for s, stat := range subjects {
		report.SubjectAccuracy[s] = results.Accuracy(stat.Correct, stat.Total)
	}
	for s, byTopic := range topics {
		report.TopicHeatmap[s] = heatmap(byTopic)
	}
	report.Weekly = weekly(history, now)
	report.Streak = Streak(history, now)
	return report
}

func heatmap(byTopic map[string]models.CategoryStat) []HeatmapCell {
	cells := make([]HeatmapCell, 0, len(byTopic))
	for topic, stat := range byTopic {
		if stat.Total < constants.HeatmapThreshold {
			continue
		}
		cells = append(cells, HeatmapCell{Topic: topic, Score: results.Accuracy(stat.Correct, stat.Total)})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Score != cells[j].Score {
			return cells[i].Score > cells[j].Score
		}
		return cells[i].Topic < cells[j].Topic
	})
	if len(cells) > constants.HeatmapTopN {
		cells = cells[:constants.HeatmapTopN]
	}
	return cells
}

func weekly(history []models.QuizResult, now time.Time) []DayStat {
	type bucket struct{ questions, correct int }
	byDay := make(map[string]bucket)
	for _, res := range history {
		if res.CompletedAt.IsZero() {
			continue
		}
		key := dayKey(res.CompletedAt)
		b := byDay[key]
		b.questions += len(res.Questions)
		b.correct += res.CorrectAnswers
		byDay[key] = b
	}

	days := make([]DayStat, 0, 7)
	for i := 6; i >= 0; i-- {
		d := now.UTC().AddDate(0, 0, -i)
		b := byDay[dayKey(d)]
		days = append(days, DayStat{
			Date:      dayKey(d),
			Day:       d.Weekday().String()[:3],
			Accuracy:  results.Accuracy(b.correct, b.questions),
			Questions: b.questions,
		})
	}
	return days
}

// Streak counts consecutive days with at least one completed quiz, ending
// today. No quiz today means no streak.
func Streak(history []models.QuizResult, now time.Time) int {
	active := make(map[string]bool)
	for _, res := range history {
		if !res.CompletedAt.IsZero() {
			active[dayKey(res.CompletedAt)] = true
		}
	}
	streak := 0
	for d := now.UTC(); active[dayKey(d)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func Rank(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "Top 5%"
	case accuracy >= 80:
		return "Top 15%"
	case accuracy >= 70:
		return "Top 30%"
	case accuracy >= 60:
		return "Top 50%"
	case accuracy >= 50:
		return "Top 70%"
	default:
		return "Needs Improvement"
	}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
