package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[TemplateType]messageTemplate{
	TemplateBookingConfirmation: mustTemplate(
		"Booking confirmed: room {{.room_number}}",
		`Dear {{.guest_name}},

Your booking {{.booking_id}} is confirmed.
Room: {{.room_number}}
Check-in: {{.check_in}}
Check-out: {{.check_out}}
Total: {{.total_amount}}

We look forward to welcoming you.
`),
	TemplateBookingCancellation: mustTemplate(
		"Booking {{.booking_id}} cancelled",
		`Dear {{.guest_name}},

Your booking {{.booking_id}} for {{.check_in}} to {{.check_out}} has been cancelled.
{{with .reason}}Reason: {{.}}
{{end}}`),
	TemplateCheckInWelcome: mustTemplate(
		"Welcome, {{.guest_name}}",
		`Dear {{.guest_name}},

Welcome! You are checked in to room {{.room_number}} until {{.check_out}}.
`),
	TemplateCheckOutThanks: mustTemplate(
		"Thank you for staying with us",
		`Dear {{.guest_name}},

Thank you for staying in room {{.room_number}}. We hope to see you again.
`),
}

func mustTemplate(subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New("subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New("body").Option("missingkey=zero").Parse(body)),
	}
}

// Render produces the subject and body of a notification.
func Render(t TemplateType, data map[string]any) (subject, body string, err error) {
	tmpl, ok := templates[t]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", t)
	}

	var sb, bb bytes.Buffer
	if err := tmpl.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", t, err)
	}
	if err := tmpl.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", t, err)
	}
	return sb.String(), bb.String(), nil
}
