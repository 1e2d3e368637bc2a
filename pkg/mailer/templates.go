package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template names.
const (
	TemplateOrderPlaced           = "order_placed"
	TemplateOrderStatusChanged    = "order_status_changed"
	TemplateInstallationRequested = "installation_requested"
	TemplateInstallationUpdated   = "installation_updated"
	TemplateExchangeRequested     = "exchange_requested"
	TemplateWelcome               = "welcome"
)

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[string]mailTemplate{
	TemplateOrderPlaced: parse(
		"Your LuxeMarket order {{short .OrderID}} is confirmed",
		`Hi {{.CustomerName}},

Thanks for your order. Here is what we received:
{{range .Items}}
  - {{.Name}} x{{.Quantity}} @ {{.Price.StringFixed 2}}{{end}}

Total: {{.TotalPrice.StringFixed 2}}

We will let you know once it ships.
`),
	TemplateOrderStatusChanged: parse(
		"Order {{short .OrderID}} is now {{.To}}",
		`Your order {{.OrderID}} moved from {{.From}} to {{.To}}.
`),
	TemplateInstallationRequested: parse(
		"New installation request from {{.Name}}",
		`Name: {{.Name}}
Phone: {{.Phone}}
Address: {{.Address}}
{{if .Notes}}Notes: {{.Notes}}
{{end}}`),
	TemplateInstallationUpdated: parse(
		"Installation request {{short .RequestID}} is {{.Status}}",
		`Installation request {{.RequestID}} is now {{.Status}}.
`),
	TemplateExchangeRequested: parse(
		"We received your exchange request",
		`Hi {{.Name}},

We received your request to exchange your {{.OldUPSModel}} ({{.Condition}}).
Estimated value: {{.EstimatedValue.StringFixed 0}}

Our team will contact you to confirm the final offer.
`),
	TemplateWelcome: parse(
		"Welcome to LuxeMarket",
		`Hi {{.Name}},

Your account is ready. Sign in with {{.Email}} to track orders and installations.
`),
}

func parse(subject, body string) mailTemplate {
	funcs := template.FuncMap{"short": func(v fmt.Stringer) string {
		s := v.String()
		if len(s) > 8 {
			return s[:8]
		}
		return s
	}}
	return mailTemplate{
		subject: template.Must(template.New("subject").Funcs(funcs).Parse(subject)),
		body:    template.Must(template.New("body").Funcs(funcs).Parse(body)),
	}
}

// Render builds a Message from a named template and its data.
func Render(name string, to []string, data any) (Message, error) {
	tmpl, ok := templates[name]
	if !ok {
		return Message{}, fmt.Errorf("mailer: unknown template %q", name)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return Message{}, fmt.Errorf("mailer: render %s subject: %w", name, err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("mailer: render %s body: %w", name, err)
	}
	return Message{To: to, Subject: subject.String(), Body: body.String()}, nil
}
