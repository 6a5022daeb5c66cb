package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"gopkg.in/gomail.v2"

	"github.com/brightlink/quotedesk/internal/entity"
)

func NewEmailSender(host string, port int, user, password, from, baseURL string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		BaseURL:  baseURL,
	}
}

// SendQuoteReady tells the lead their pricing came back. Best-effort: the
// caller fires this in a goroutine and only logs failures.
func (s *EmailSender) SendQuoteReady(to, name string, quote *entity.Quote) error {
	data := QuoteReadyEmailData{
		Name:        name,
		Address:     fmt.Sprintf("%s, %s, %s %s", quote.StreetAddress, quote.City, quote.State, quote.ZipCode),
		CarrierName: quote.CarrierName,
		MRC:         fmt.Sprintf("$%.2f", quote.MRC),
		NRC:         fmt.Sprintf("$%.2f", quote.NRC),
		QuoteLink:   fmt.Sprintf("%s/quotes/%s", s.BaseURL, quote.ID),
	}

	body, err := s.render("quote_ready.html", data)
	if err != nil {
		return err
	}

	return s.send(to, fmt.Sprintf("Your internet quote for %s is ready", quote.City), body)
}

// SendBatchSummary delivers the end-of-batch report with per-row outcomes.
func (s *EmailSender) SendBatchSummary(to, name string, job *entity.BatchJob, items []*entity.BatchQuote) error {
	data := BatchSummaryEmailData{
		Name:         name,
		FileName:     job.FileName,
		Total:        job.TotalCount,
		Success:      job.SuccessCount,
		Failed:       job.FailedCount,
		DashboardURL: fmt.Sprintf("%s/batches/%s", s.BaseURL, job.ID),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, BatchSummaryRow{
			RowNumber: item.RowNumber,
			Address:   fmt.Sprintf("%s, %s, %s %s", item.StreetAddress, item.City, item.State, item.ZipCode),
			Status:    string(item.Status),
			Detail:    item.ErrorMessage,
		})
	}

	body, err := s.render("batch_summary.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Batch %s finished: %d of %d quotes priced", job.FileName, job.SuccessCount, job.TotalCount)
	return s.send(to, subject, body)
}

func (s *EmailSender) render(name string, data any) (string, error) {
	tmplPath := filepath.Join("templates", name)
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via SMTP: %w", err)
	}

	return nil
}
