package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nekogravitycat/hotel-booking-backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu   sync.Mutex
	logs map[string]*Log
	fail error
}

func newMemRepo() *memRepo {
	return &memRepo{logs: map[string]*Log{}}
}

func (m *memRepo) Create(_ context.Context, l *Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	l.ID = string(rune('a' + len(m.logs)))
	cp := *l
	m.logs[l.ID] = &cp
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status Status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[id].Status = status
	m.logs[id].Error = errMsg
	return nil
}

func (m *memRepo) only(t *testing.T) *Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.logs, 1)
	for _, l := range m.logs {
		return l
	}
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

var guest = Recipient{Name: "Asha Rao", Email: "asha@example.com"}

func TestSend_Delivers(t *testing.T) {
	repo := newMemRepo()
	mailer := &fakeMailer{}
	svc := NewService(repo, mailer, 2, logging.Discard(), nil)

	svc.Send(context.Background(), TemplateBookingConfirmation, guest, map[string]any{
		"booking_id": "b1", "room_number": "101", "check_in": "2024-06-01", "check_out": "2024-06-05", "total_amount": "8000.00",
	})
	svc.Wait()

	assert.Equal(t, []string{"asha@example.com|Booking confirmed: room 101"}, mailer.sent)
	l := repo.only(t)
	assert.Equal(t, StatusSent, l.Status)
	assert.Contains(t, l.Body, "Dear Asha Rao")
	assert.Contains(t, l.Body, "Total: 8000.00")
}

func TestSend_FailureIsRecordedNotReturned(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakeMailer{err: errors.New("connection refused")}, 1, logging.Discard(), nil)

	svc.Send(context.Background(), TemplateCheckInWelcome, guest, map[string]any{"room_number": "101"})
	svc.Wait()

	l := repo.only(t)
	assert.Equal(t, StatusFailed, l.Status)
	assert.Equal(t, "connection refused", l.Error)
}

func TestSend_SkippedWithoutTransport(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, 1, logging.Discard(), nil)

	svc.Send(context.Background(), TemplateCheckOutThanks, guest, nil)
	svc.Wait()

	assert.Equal(t, StatusSkipped, repo.only(t).Status)
}

func TestSend_LogFailureDoesNotPanic(t *testing.T) {
	repo := newMemRepo()
	repo.fail = errors.New("db down")
	mailer := &fakeMailer{}
	svc := NewService(repo, mailer, 1, logging.Discard(), nil)

	svc.Send(context.Background(), TemplateBookingCancellation, guest, map[string]any{"booking_id": "b1"})
	svc.Wait()
	assert.Empty(t, mailer.sent)
}

func TestRender(t *testing.T) {
	subject, body, err := Render(TemplateBookingCancellation, map[string]any{
		"guest_name": "Asha", "booking_id": "b9", "check_in": "2024-06-01", "check_out": "2024-06-03", "reason": "change of plans",
	})
	require.NoError(t, err)
	assert.Equal(t, "Booking b9 cancelled", subject)
	assert.Contains(t, body, "Reason: change of plans")

	_, _, err = Render("SPAM", nil)
	assert.Error(t, err)
}
