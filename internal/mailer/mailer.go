package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
)

const (
	TemplateVerification  = "verification"
	TemplatePasswordReset = "password_reset"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[string]string{
	TemplateVerification:  "Verify your Arkive account",
	TemplatePasswordReset: "Reset your Arkive password",
}

// Sender delivers one templated message to one recipient.
type Sender interface {
	Send(ctx context.Context, to string, templateName string, data map[string]any) error
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Render(to string, templateName string, data map[string]any) (Message, error) {
	subject, ok := subjects[templateName]
	if !ok {
		return Message{}, fmt.Errorf("unknown mail template %q", templateName)
	}

	var body bytes.Buffer
	if err := r.templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", templateName, err)
	}

	return Message{To: to, Subject: subject, HTML: body.String()}, nil
}

// LogSender renders messages and writes them to the log instead of delivering them.
type LogSender struct {
	renderer *Renderer
}

func NewLogSender(renderer *Renderer) *LogSender {
	return &LogSender{renderer: renderer}
}

func (s *LogSender) Send(ctx context.Context, to string, templateName string, data map[string]any) error {
	msg, err := s.renderer.Render(to, templateName, data)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "email not delivered (log sender)",
		"to", msg.To, "subject", msg.Subject, "template", templateName, "data", data)
	return nil
}
