package notify

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

const maxConcurrentSends = 4

// Assignment describes a work item that users were just assigned to.
type Assignment struct {
	Kind     work.Kind
	Title    string
	JobID    uint
	JobTitle string
}

type AssignmentNotifier struct {
	mailer mailer.Mailer
	tokens *auth.Tokens
	appURL string
	log    logger.Logger
}

func NewAssignmentNotifier(m mailer.Mailer, tokens *auth.Tokens, appURL string, log logger.Logger) *AssignmentNotifier {
	return &AssignmentNotifier{mailer: m, tokens: tokens, appURL: appURL, log: log}
}

// Notify emails every assignee that opted into email, skipping the user
// who made the assignment. Each failure is logged; the first is returned.
func (n *AssignmentNotifier) Notify(ctx context.Context, a Assignment, assignees []work.Assignee, assignedBy uint) error {
	if n == nil {
		return nil
	}

	// a plain group: one bad mailbox must not cancel the other sends
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentSends)

	for _, as := range assignees {
		if as.NotificationPref != models.NotifyEmail || as.UserID == assignedBy {
			continue
		}

		g.Go(func() error {
			if err := n.send(ctx, a, as); err != nil {
				n.log.WithFields(map[string]interface{}{
					"user_id": as.UserID,
					"kind":    string(a.Kind),
					"error":   err.Error(),
				}).Error("failed to send assignment email")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func (n *AssignmentNotifier) send(ctx context.Context, a Assignment, as work.Assignee) error {
	token, err := n.tokens.Issue(as.Email, auth.PurposeUnsubscribe)
	if err != nil {
		return fmt.Errorf("issue unsubscribe token: %w", err)
	}

	unsubscribeURL := n.appURL + "/api/unsubscribe?token=" + url.QueryEscape(token)
	jobURL := fmt.Sprintf("%s/jobs/%d", n.appURL, a.JobID)

	name := as.FirstName
	msg := mailer.AssignmentMessage(as.Email, name, string(a.Kind), a.Title, a.JobTitle, jobURL, unsubscribeURL)
	return n.mailer.Send(ctx, msg)
}
