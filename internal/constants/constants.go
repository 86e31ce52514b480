package constants

const (
	ModeQuick    = "quick"
	ModeTopic    = "topic"
	ModeFull     = "full"
	ModePYQ      = "pyq"
	ModeCoaching = "coaching"
	ModeJSON     = "json"
)

const (
	DefaultSubject    = "General"
	DefaultTopic      = "Unknown"
	DefaultQuizTitle  = "Quick Quiz"
	DefaultDifficulty = "Medium"
)

const (
	DefaultDurationSec    = 30 * 60
	DefaultTopicThreshold = 3
	HeatmapThreshold      = 5
	HeatmapTopN           = 5
	AnalyticsHistoryLimit = 50
)

const (
	QueueResultsReady   = "quiz.results_ready"
	QueuePDFAssessments = "solver.pdf_assessments"
)

const (
	DoubtStatusSolved = "solved"
	DoubtStatusQueued = "queued"
)

const (
	ExplanationFallback = "Could not load explanation. The AI service might be unavailable."
	BankHint            = "Review the related concepts to understand this question better."
	PracticeRedirect    = "/practice"
)

const HandoffKeyPrefix = "quiz:handoff:"
