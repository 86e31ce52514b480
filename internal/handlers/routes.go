package handlers

import (
	"github.com/gin-gonic/gin"

	"jee-solver/internal/middleware"
)

type Handlers struct {
	Quiz      *QuizHandler
	Session   *SessionHandler
	WebSocket *WebSocketHandler
	Result    *ResultHandler
	Revision  *RevisionHandler
	Doubt     *DoubtHandler
	Question  *QuestionHandler
}

// RegisterRoutes mounts the API. Quiz setup and sessions work anonymously;
// history, revision, doubts and the bank need a signed-in user.
func RegisterRoutes(router gin.IRouter, h Handlers, jwtSecret string) {
	optional := middleware.OptionalAuth(jwtSecret)
	required := middleware.JWTAuth(jwtSecret)

	router.GET("/questions/topics", optional, h.Quiz.GetTopics)

	quizzesGroup := router.Group("/quizzes")
	quizzesGroup.Use(optional)
	{
		quizzesGroup.POST("/generate", h.Quiz.GenerateQuiz)
		quizzesGroup.GET("/bank/years", h.Quiz.GetBankYears)
		quizzesGroup.POST("/bank", h.Quiz.LoadBankQuiz)
	}

	sessionsGroup := router.Group("/sessions")
	sessionsGroup.Use(optional)
	{
		sessionsGroup.POST("", h.Session.StartSession)
		sessionsGroup.GET("/:id", h.Session.GetSession)
		sessionsGroup.DELETE("/:id", h.Session.AbandonSession)
		sessionsGroup.POST("/:id/answers", h.Session.SelectAnswer)
		sessionsGroup.POST("/:id/bookmarks/:questionId", h.Session.ToggleBookmark)
		sessionsGroup.POST("/:id/hint", h.Session.ShowHint)
		sessionsGroup.POST("/:id/next", h.Session.Next)
		sessionsGroup.POST("/:id/previous", h.Session.Previous)
	}

	if h.WebSocket != nil {
		router.GET("/ws/sessions/:id", optional, h.WebSocket.HandleWebSocket)
	}

	resultsGroup := router.Group("/results")
	resultsGroup.Use(required)
	{
		resultsGroup.GET("", h.Result.ListResults)
		resultsGroup.GET("/latest", h.Result.GetLatestResult)
		resultsGroup.GET("/:id", h.Result.GetResult)
	}

	progressGroup := router.Group("/progress")
	progressGroup.Use(required)
	{
		progressGroup.GET("", h.Result.GetProgress)
		progressGroup.GET("/analytics", h.Result.GetAnalytics)
	}

	revisionGroup := router.Group("/revision")
	revisionGroup.Use(required)
	{
		revisionGroup.GET("/bookmarks", h.Revision.GetFlashcards)
		revisionGroup.DELETE("/bookmarks/:questionId", h.Revision.RemoveBookmark)
	}

	router.POST("/doubts", required, h.Doubt.SubmitDoubt)

	bankGroup := router.Group("/bank/questions")
	bankGroup.Use(required)
	{
		bankGroup.POST("", h.Question.CreateQuestion)
		bankGroup.GET("", h.Question.ListQuestions)
		bankGroup.GET("/:id", h.Question.GetQuestion)
		bankGroup.PUT("/:id", h.Question.UpdateQuestion)
		bankGroup.DELETE("/:id", h.Question.DeleteQuestion)
	}
}
