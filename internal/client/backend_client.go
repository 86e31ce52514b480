package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jee-solver/internal/constants"
	"jee-solver/internal/models"
	"jee-solver/pkg/logger"
	"jee-solver/pkg/tracing"
)

var ErrUpstream = errors.New("ai backend request failed")

// BackendClient talks to the AI service that generates quizzes,
// explanations and image solutions.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	tracer     trace.Tracer
}

func NewBackendClient(baseURL string, timeout time.Duration, log *logger.Logger) *BackendClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("client", "BackendClient"),
		tracer:     tracing.Tracer(),
	}
}

type explanationRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    string   `json:"userAnswer"`
}

type explanationResponse struct {
	Explanation string `json:"explanation"`
}

type progressRequest struct {
	QuestionID   string `json:"questionId"`
	IsCorrect    bool   `json:"isCorrect"`
	IsBookmarked bool   `json:"isBookmarked"`
}

type generateQuizRequest struct {
	Subject string `json:"subject"`
	Mode    string `json:"mode"`
	Topic   string `json:"topic"`
}

type quizQuestion struct {
	ID            json.RawMessage `json:"id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer string          `json:"correctAnswer"`
	Hint          string          `json:"hint"`
	Explanation   string          `json:"explanation"`
	Subject       string          `json:"subject"`
	Topic         string          `json:"topic"`
}

type quizResponse struct {
	QuizTitle  string         `json:"quizTitle"`
	Subject    string         `json:"subject"`
	Mode       string         `json:"mode"`
	Topic      string         `json:"topic"`
	Difficulty string         `json:"difficulty"`
	Duration   int            `json:"duration"`
	Questions  []quizQuestion `json:"questions"`
}

type topicsResponse struct {
	Topics []string `json:"topics"`
}

type solveResponse struct {
	Solution string `json:"solution"`
}

// FetchExplanation never fails: any upstream problem yields the fixed
// fallback text.
func (c *BackendClient) FetchExplanation(ctx context.Context, req models.ExplanationRequest) string {
	var resp explanationResponse
	err := c.postJSON(ctx, "/questions/generate-explanation", explanationRequest{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		UserAnswer:    req.UserAnswer,
	}, &resp)
	if err != nil {
		c.log.Warn("explanation unavailable", "error", err)
		return constants.ExplanationFallback
	}
	text := strings.TrimSpace(resp.Explanation)
	if text == "" {
		return constants.ExplanationFallback
	}
	return text
}

func (c *BackendClient) RecordProgress(ctx context.Context, rec models.ProgressRecord) error {
	return c.postJSON(ctx, "/questions/record-progress", progressRequest{
		QuestionID:   rec.QuestionID,
		IsCorrect:    rec.IsCorrect,
		IsBookmarked: rec.IsBookmarked,
	}, nil)
}

func (c *BackendClient) GenerateQuiz(ctx context.Context, subject, mode, topic string) (*models.Quiz, error) {
	var resp quizResponse
	if err := c.postJSON(ctx, "/questions/generate-quiz", generateQuizRequest{
		Subject: subject,
		Mode:    mode,
		Topic:   topic,
	}, &resp); err != nil {
		return nil, err
	}
	return convertQuiz(&resp), nil
}

func (c *BackendClient) Topics(ctx context.Context, subject string) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "backend.topics")
	defer span.End()

	endpoint := c.baseURL + "/questions/topics?subject=" + url.QueryEscape(subject)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var resp topicsResponse
	if err := c.do(span, httpReq, &resp); err != nil {
		return nil, err
	}
	if resp.Topics == nil {
		resp.Topics = []string{}
	}
	return resp.Topics, nil
}

// SolveImage uploads an image of a problem and returns the worked solution.
func (c *BackendClient) SolveImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ctx, span := c.tracer.Start(ctx, "backend.solve_image")
	defer span.End()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/solver/solve-image", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp solveResponse
	if err := c.do(span, httpReq, &resp); err != nil {
		return "", err
	}
	return resp.Solution, nil
}

func (c *BackendClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "backend.post", trace.WithAttributes(attribute.String("backend.path", path)))
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(span, httpReq, out)
}

func (c *BackendClient) do(span trace.Span, req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUpstream, req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}
	return nil
}

func convertQuiz(resp *quizResponse) *models.Quiz {
	quiz := &models.Quiz{
		Title:       resp.QuizTitle,
		Subject:     resp.Subject,
		Mode:        resp.Mode,
		Topic:       resp.Topic,
		Difficulty:  resp.Difficulty,
		DurationSec: resp.Duration,
		Questions:   make([]models.Question, 0, len(resp.Questions)),
	}
	for i, q := range resp.Questions {
		id := rawID(q.ID)
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		quiz.Questions = append(quiz.Questions, models.Question{
			ID:            id,
			Text:          q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Hint:          q.Hint,
			Explanation:   q.Explanation,
			Subject:       q.Subject,
			Topic:         q.Topic,
		})
	}
	return quiz
}

// rawID accepts both numeric and string ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
