package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]bool
	// delay holds healthy sends open so a failing one finishes first
	delay time.Duration
}

func (r *recordingMailer) Send(ctx context.Context, m mailer.Message) error {
	if r.fail[m.To] {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func TestNotify_OnlyOptedInAssignees(t *testing.T) {
	m := &recordingMailer{}
	tokens := auth.NewTokens("token-secret")
	n := NewAssignmentNotifier(m, tokens, "https://jobs.example.com", logger.NewNop())

	assignees := []work.Assignee{
		{ItemID: 1, UserID: 10, FirstName: "Ana", Email: "ana@example.com", NotificationPref: models.NotifyEmail},
		{ItemID: 1, UserID: 11, FirstName: "Ben", Email: "ben@example.com", NotificationPref: models.NotifyNone},
		{ItemID: 1, UserID: 12, FirstName: "Cy", Email: "cy@example.com", NotificationPref: models.NotifyEmail},
	}

	err := n.Notify(context.Background(), Assignment{Kind: work.KindTask, Title: "Hang doors", JobID: 3, JobTitle: "Barn"}, assignees, 12)
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Contains(t, msg.HTML, "https://jobs.example.com/jobs/3")
	require.True(t, strings.HasPrefix(msg.UnsubscribeURL, "https://jobs.example.com/api/unsubscribe?token="))

	token := strings.TrimPrefix(msg.UnsubscribeURL, "https://jobs.example.com/api/unsubscribe?token=")
	email, err := tokens.Verify(token, auth.PurposeUnsubscribe)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
}

func TestNotify_FailureIsReturned(t *testing.T) {
	m := &recordingMailer{fail: map[string]bool{"ana@example.com": true}}
	n := NewAssignmentNotifier(m, auth.NewTokens("s"), "http://localhost:3000", logger.NewNop())

	err := n.Notify(context.Background(), Assignment{Kind: work.KindMaterial, Title: "Nails"}, []work.Assignee{
		{UserID: 1, Email: "ana@example.com", NotificationPref: models.NotifyEmail},
	}, 0)
	assert.Error(t, err)
}

func TestNotify_FailureDoesNotCancelOtherSends(t *testing.T) {
	m := &recordingMailer{fail: map[string]bool{"bad@example.com": true}, delay: 50 * time.Millisecond}
	n := NewAssignmentNotifier(m, auth.NewTokens("s"), "http://localhost:3000", logger.NewNop())

	err := n.Notify(context.Background(), Assignment{Kind: work.KindTask, Title: "Frame wall"}, []work.Assignee{
		{UserID: 1, Email: "bad@example.com", NotificationPref: models.NotifyEmail},
		{UserID: 2, Email: "ok1@example.com", NotificationPref: models.NotifyEmail},
		{UserID: 3, Email: "ok2@example.com", NotificationPref: models.NotifyEmail},
	}, 0)
	assert.Error(t, err)

	var delivered []string
	for _, msg := range m.sent {
		delivered = append(delivered, msg.To)
	}
	assert.ElementsMatch(t, []string{"ok1@example.com", "ok2@example.com"}, delivered)
}

func TestNotify_NilNotifier(t *testing.T) {
	var n *AssignmentNotifier
	assert.NoError(t, n.Notify(context.Background(), Assignment{}, nil, 0))
}
