package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/hireflow/api/internal/config"
)

// Notifier sends candidate-facing notification emails. Delivery is
// best-effort: callers fire-and-forget and a failed send must never
// fail the pipeline stage that triggered it.
type Notifier interface {
	SendAssessmentInvite(to, candidateName, position, company, assessmentURL string, totalQuestions int) error
	SendInterviewInvite(to, candidateName, jobRole, interviewURL string) error
	IsConfigured() bool
}

// Mailer implements Notifier over SMTP
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a new SMTP mailer
func NewMailer(cfg *config.SMTPConfig) *Mailer {
	var dialer *gomail.Dialer
	if cfg.Host != "" {
		dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Mailer{
		dialer: dialer,
		from:   from,
	}
}

// SendAssessmentInvite emails the candidate a link to their MCQ assessment
func (m *Mailer) SendAssessmentInvite(to, candidateName, position, company, assessmentURL string, totalQuestions int) error {
	subject := fmt.Sprintf("MCQ Assessment for %s at %s", position, company)
	body := fmt.Sprintf(`<p>Hello <b>%s</b>,</p>
<p>You have been invited to take an MCQ assessment for the <b>%s</b> position at <b>%s</b>.</p>
<ul>
  <li>Total questions: <b>%d</b></li>
  <li>Covers: job-specific knowledge, soft skills, and aptitude</li>
  <li>Time limit: 20 minutes</li>
</ul>
<p><a href="%s">Start Assessment</a></p>
<p>If the link doesn't work, copy and paste this URL into your browser:<br>%s</p>
<p>Good luck!<br>The %s Recruitment Team</p>`,
		candidateName, position, company, totalQuestions, assessmentURL, assessmentURL, company)

	return m.send(to, subject, body)
}

// SendInterviewInvite emails the candidate a link to their AI interview
func (m *Mailer) SendInterviewInvite(to, candidateName, jobRole, interviewURL string) error {
	subject := fmt.Sprintf("Interview Invitation for %s", jobRole)
	body := fmt.Sprintf(`<p>Hello <b>%s</b>,</p>
<p>You have been invited to take an AI-powered interview for the <b>%s</b> position.</p>
<p>This interview will evaluate your skills, experience, and fit for the role.</p>
<p><a href="%s">Start Interview</a></p>
<p>If the link doesn't work, copy and paste this URL into your browser:<br>%s</p>
<p>Good luck!</p>`,
		candidateName, jobRole, interviewURL, interviewURL)

	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.dialer == nil {
		return fmt.Errorf("SMTP not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// IsConfigured returns true if SMTP settings are present
func (m *Mailer) IsConfigured() bool {
	return m.dialer != nil
}
