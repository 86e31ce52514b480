package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"jee-solver/config"
)

type SMTPClient struct {
	config *config.SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPClient(cfg *config.SMTPConfig) *SMTPClient {
	return &SMTPClient{
		config: cfg,
		send:   smtp.SendMail,
	}
}

type EmailData struct {
	To      string
	Subject string
	Body    string
}

// QuizSummary is the data rendered into the results email.
type QuizSummary struct {
	QuizTitle      string
	Subject        string
	CorrectAnswers int
	TotalQuestions int
	Accuracy       int
}

func (c *SMTPClient) SendEmail(data EmailData) error {
	var auth smtp.Auth
	if c.config.Username != "" || c.config.Password != "" {
		auth = smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
	}

	msg := c.buildMessage(data)

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)

	if err := c.send(addr, auth, c.config.From, []string{data.To}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (c *SMTPClient) buildMessage(data EmailData) string {
	msg := fmt.Sprintf("From: %s\r\n", c.config.From)
	msg += fmt.Sprintf("To: %s\r\n", data.To)
	msg += fmt.Sprintf("Subject: %s\r\n", data.Subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=UTF-8\r\n"
	msg += "\r\n"
	msg += data.Body

	return msg
}

var quizResultsTmpl = template.Must(template.New("quiz_results").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .score { font-size: 32px; font-weight: bold; color: #4f46e5; margin: 20px 0; }
        .highlight { color: #4f46e5; font-weight: bold; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>JEE Solver - Quiz Complete</h2>
        <p>You finished <span class="highlight">{{.QuizTitle}}</span> ({{.Subject}}).</p>
        <div class="score">{{.Accuracy}}%</div>
        <p>{{.CorrectAnswers}} of {{.TotalQuestions}} answers were correct.</p>
        <p>Open your dashboard to review explanations and bookmarked questions.</p>
        <div class="footer">
            <p>This is an automated message from JEE Solver.</p>
        </div>
    </div>
</body>
</html>
`))

func renderQuizResults(summary QuizSummary) (string, error) {
	var body bytes.Buffer
	if err := quizResultsTmpl.Execute(&body, summary); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}

func (c *SMTPClient) SendQuizResults(to string, summary QuizSummary) error {
	body, err := renderQuizResults(summary)
	if err != nil {
		return err
	}

	return c.SendEmail(EmailData{
		To:      to,
		Subject: fmt.Sprintf("JEE Solver - %d%% on %s", summary.Accuracy, summary.QuizTitle),
		Body:    body,
	})
}
