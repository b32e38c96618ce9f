package notification

import (
	"context"
	"sync"

	"github.com/nekogravitycat/hotel-booking-backend/internal/metrics"
	"github.com/sirupsen/logrus"
)

const WarningNotificationFailed = "notification_failed"

// Sender is fire-and-forget: it never reports failure to the caller.
type Sender interface {
	Send(ctx context.Context, t TemplateType, to Recipient, data map[string]any)
}

type Service struct {
	repo    Repository
	mailer  Mailer // nil disables delivery
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewService creates a Sender that records each message and delivers it with
// at most concurrency deliveries in flight.
func NewService(repo Repository, mailer Mailer, concurrency int, logger logrus.FieldLogger, m *metrics.Metrics) *Service {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Service{
		repo:    repo,
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		sem:     make(chan struct{}, concurrency),
	}
}

func (s *Service) Send(ctx context.Context, t TemplateType, to Recipient, data map[string]any) {
	log := s.logger.WithFields(logrus.Fields{"template": t, "recipient": to.Email})

	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["guest_name"]; !ok {
		data["guest_name"] = to.Name
	}

	subject, body, err := Render(t, data)
	if err != nil {
		s.fail(log, t, err)
		return
	}

	entry := &Log{TemplateType: t, Recipient: to.Email, Subject: subject, Body: body, Status: StatusQueued}
	if to.Email == "" || s.mailer == nil {
		entry.Status = StatusSkipped
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.fail(log, t, err)
		return
	}
	if entry.Status == StatusSkipped {
		s.metrics.Notification(string(t), string(StatusSkipped))
		return
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		status, errMsg := StatusSent, ""
		if err := s.mailer.Send(to.Email, subject, body); err != nil {
			status, errMsg = StatusFailed, err.Error()
			s.fail(log.WithField("log_id", entry.ID), t, err)
		} else {
			s.metrics.Notification(string(t), string(StatusSent))
		}

		if err := s.repo.UpdateStatus(bg, entry.ID, status, errMsg); err != nil {
			log.WithError(err).Warn("could not record notification result")
		}
	}()
}

// Wait blocks until queued deliveries have finished. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) fail(log logrus.FieldLogger, t TemplateType, err error) {
	s.metrics.Notification(string(t), string(StatusFailed))
	log.WithError(err).WithField("warning", WarningNotificationFailed).Warn("notification not delivered")
}

// NopSender drops every notification.
type NopSender struct{}

func (NopSender) Send(context.Context, TemplateType, Recipient, map[string]any) {}
