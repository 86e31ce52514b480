// Package results turns a finished session into a QuizResult and folds
// results into a user's running progress summary. Everything here is pure.
package results

import (
	"errors"
	"sort"
	"time"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
)

var ErrEmptySession = errors.New("session has no questions")

// Input is everything Compute needs from a finished session.
type Input struct {
	ResultID    string
	UserID      string
	Quiz        *models.Quiz
	Answers     map[string]models.AnswerRecord
	StartedAt   time.Time
	CompletedAt time.Time
	// TimeSpentSec is the configured duration minus the remaining time.
	TimeSpentSec int
}

// Accuracy is correct/total*100 rounded half up. total <= 0 yields 0.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

func Compute(in Input) (*models.QuizResult, error) {
	if in.Quiz == nil || len(in.Quiz.Questions) == 0 {
		return nil, ErrEmptySession
	}
	quiz := in.Quiz

	subject := quiz.Subject
	if subject == "" {
		subject = constants.DefaultSubject
	}
	title := quiz.Title
	if title == "" {
		title = constants.DefaultQuizTitle
	}
	difficulty := quiz.Difficulty
	if difficulty == "" {
		difficulty = constants.DefaultDifficulty
	}

	details := make([]models.QuestionDetail, 0, len(quiz.Questions))
	correct := 0
	for _, q := range quiz.Questions {
		rec, answered := in.Answers[q.ID]
		isCorrect := answered && rec.IsCorrect
		if isCorrect {
			correct++
		}

		qSubject := q.Subject
		if qSubject == "" {
			qSubject = subject
		}
		topic := q.Topic
		if topic == "" {
			topic = constants.DefaultTopic
		}

		details = append(details, models.QuestionDetail{
			QuestionID:    q.ID,
			Question:      q.Text,
			Options:       append([]string(nil), q.Options...),
			UserAnswer:    rec.Selected,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Hint:          q.Hint,
			Subject:       qSubject,
			Topic:         topic,
		})
	}

	timeSpent := in.TimeSpentSec
	if timeSpent < 0 {
		timeSpent = 0
	}
	total := len(quiz.Questions)

	return &models.QuizResult{
		ID:             in.ResultID,
		UserID:         in.UserID,
		QuizTitle:      title,
		Subject:        subject,
		Difficulty:     difficulty,
		Mode:           quiz.Mode,
		TotalQuestions: total,
		CorrectAnswers: correct,
		Accuracy:       Accuracy(correct, total),
		TimeSpentSec:   timeSpent,
		StartedAt:      in.StartedAt,
		CompletedAt:    in.CompletedAt,
		Questions:      details,
	}, nil
}

// Merge folds res into prev and returns a new summary; prev is not modified.
// A nil prev starts from zero.
func Merge(prev *models.ProgressSummary, res *models.QuizResult) *models.ProgressSummary {
	next := &models.ProgressSummary{
		Subjects: make(map[string]models.CategoryStat),
		Topics:   make(map[string]map[string]models.CategoryStat),
	}
	if prev != nil {
		next.UserID = prev.UserID
		next.TotalQuestions = prev.TotalQuestions
		next.CorrectAnswers = prev.CorrectAnswers
		next.QuizAttempts = prev.QuizAttempts
		for s, stat := range prev.Subjects {
			next.Subjects[s] = stat
		}
		for s, topics := range prev.Topics {
			copied := make(map[string]models.CategoryStat, len(topics))
			for t, stat := range topics {
				copied[t] = stat
			}
			next.Topics[s] = copied
		}
	}
	if next.UserID == "" {
		next.UserID = res.UserID
	}

	next.TotalQuestions += res.TotalQuestions
	next.CorrectAnswers += res.CorrectAnswers
	next.QuizAttempts++
	next.Accuracy = Accuracy(next.CorrectAnswers, next.TotalQuestions)
	next.LastUpdated = res.CompletedAt

	if len(res.Questions) == 0 {
		subj := next.Subjects[res.Subject]
		subj.Total += res.TotalQuestions
		subj.Correct += res.CorrectAnswers
		next.Subjects[res.Subject] = subj
	}

	// Subjects and topics are both counted per question so mixed-subject
	// quizzes roll up under each question's own subject.
	for _, d := range res.Questions {
		subject := d.Subject
		if subject == "" {
			subject = res.Subject
		}
		subj := next.Subjects[subject]
		subj.Total++
		if d.IsCorrect {
			subj.Correct++
		}
		next.Subjects[subject] = subj

		topics, ok := next.Topics[subject]
		if !ok {
			topics = make(map[string]models.CategoryStat)
			next.Topics[subject] = topics
		}
		stat := topics[d.Topic]
		stat.Total++
		if d.IsCorrect {
			stat.Correct++
		}
		topics[d.Topic] = stat
	}

	return next
}

// View derives display percentages. Topics with fewer than threshold
// attempts are left out; threshold <= 0 uses the default of 3.
func View(summary *models.ProgressSummary, threshold int) *models.ProgressView {
	if threshold <= 0 {
		threshold = constants.DefaultTopicThreshold
	}
	view := &models.ProgressView{
		SubjectAccuracy: make(map[string]int),
		TopicAccuracy:   make(map[string][]models.TopicScore),
	}
	if summary == nil {
		return view
	}
	view.ProgressSummary = *summary

	for subject, stat := range summary.Subjects {
		view.SubjectAccuracy[subject] = Accuracy(stat.Correct, stat.Total)
	}
	for subject, topics := range summary.Topics {
		var scores []models.TopicScore
		for topic, stat := range topics {
			if stat.Total < threshold {
				continue
			}
			scores = append(scores, models.TopicScore{
				Topic:    topic,
				Accuracy: Accuracy(stat.Correct, stat.Total),
				Total:    stat.Total,
			})
		}
		if len(scores) == 0 {
			continue
		}
		sort.Slice(scores, func(i, j int) bool {
			if scores[i].Accuracy != scores[j].Accuracy {
				return scores[i].Accuracy > scores[j].Accuracy
			}
			return scores[i].Topic < scores[j].Topic
		})
		view.TopicAccuracy[subject] = scores
	}
	return view
}
