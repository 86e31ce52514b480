package service

import (
	"context"
	"sort"
	"strings"

	"jee-solver/internal/models"
	"jee-solver/pkg/logger"
)

type BookmarkReader interface {
	List(ctx context.Context, userID string) ([]models.BookmarkDetail, error)
	RemoveBookmark(ctx context.Context, userID, questionID string) error
}

type BookmarkService struct {
	repo BookmarkReader
	log  *logger.Logger
}

func NewBookmarkService(repo BookmarkReader, log *logger.Logger) *BookmarkService {
	if log == nil {
		log = logger.Nop()
	}
	return &BookmarkService{repo: repo, log: log.With("service", "BookmarkService")}
}

// Flashcards is the revision view: every subject the user has bookmarks in,
// and the cards matching the requested subject.
type Flashcards struct {
	Subjects []string                `json:"subjects"`
	Cards    []models.BookmarkDetail `json:"cards"`
}

// Flashcards filters by subject case-insensitively; "" and "all" match everything.
func (s *BookmarkService) Flashcards(ctx context.Context, userID, subject string) (*Flashcards, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	filter := strings.TrimSpace(subject)
	matchAll := filter == "" || strings.EqualFold(filter, "all")

	seen := make(map[string]struct{})
	out := &Flashcards{Subjects: []string{}, Cards: []models.BookmarkDetail{}}
	for _, b := range all {
		if _, ok := seen[b.Subject]; !ok {
			seen[b.Subject] = struct{}{}
			out.Subjects = append(out.Subjects, b.Subject)
		}
		if matchAll || strings.EqualFold(b.Subject, filter) {
			out.Cards = append(out.Cards, b)
		}
	}
	sort.Strings(out.Subjects)
	return out, nil
}

func (s *BookmarkService) Remove(ctx context.Context, userID, questionID string) error {
	if err := s.repo.RemoveBookmark(ctx, userID, questionID); err != nil {
		s.log.Error("failed to remove bookmark", "user_id", userID, "question_id", questionID, "error", err)
		return err
	}
	return nil
}
