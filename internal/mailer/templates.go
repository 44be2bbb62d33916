package mailer

import (
	"fmt"
	"html"
)

func InviteMessage(to, inviterName, code, registerURL string) Message {
	return Message{
		To:      to,
		Subject: "You're invited to join the team",
		HTML: fmt.Sprintf(`
	<html>
		<body>
			<p>Hello,</p>
			<p>%s has invited you to create an account.</p>
			<p>Your invite code is:</p>
			<h2 style="letter-spacing: 3px;">%s</h2>
			<p><a href="%s">Register here</a></p>
		</body>
	</html>`, html.EscapeString(inviterName), html.EscapeString(code), html.EscapeString(registerURL)),
		Text: fmt.Sprintf(
			"Hello,\n\n%s has invited you to create an account.\n\nInvite code: %s\nRegister at: %s\n",
			inviterName, code, registerURL),
	}
}

func PasswordResetMessage(to, name, resetURL string, welcome bool) Message {
	subject := "Reset your password"
	intro := "We received a request to reset your password."
	if welcome {
		subject = "Set up your account"
		intro = "An account has been created for you. Choose a password to get started."
	}

	return Message{
		To:      to,
		Subject: subject,
		HTML: fmt.Sprintf(`
	<html>
		<body>
			<p>Hello %s,</p>
			<p>%s</p>
			<p><a href="%s">Choose a password</a></p>
			<p>This link expires in 1 hour. If you did not expect this email, ignore it.</p>
		</body>
	</html>`, html.EscapeString(name), intro, html.EscapeString(resetURL)),
		Text: fmt.Sprintf(
			"Hello %s,\n\n%s\n\nChoose a password: %s\n\nThis link expires in 1 hour.\n",
			name, intro, resetURL),
	}
}

// AssignmentMessage tells a user they were assigned a task or material.
func AssignmentMessage(to, name, kind, title, jobTitle, jobURL, unsubscribeURL string) Message {
	return Message{
		To:             to,
		Subject:        fmt.Sprintf("New %s assigned: %s", kind, title),
		UnsubscribeURL: unsubscribeURL,
		HTML: fmt.Sprintf(`
	<html>
		<body>
			<p>Hello %s,</p>
			<p>You have been assigned the %s <strong>%s</strong> on job <strong>%s</strong>.</p>
			<p><a href="%s">Open the job</a></p>
			<p style="font-size: 12px;"><a href="%s">Stop receiving these emails</a></p>
		</body>
	</html>`,
			html.EscapeString(name), kind, html.EscapeString(title), html.EscapeString(jobTitle),
			html.EscapeString(jobURL), html.EscapeString(unsubscribeURL)),
		Text: fmt.Sprintf(
			"Hello %s,\n\nYou have been assigned the %s %q on job %q.\n\nOpen the job: %s\n\nUnsubscribe: %s\n",
			name, kind, title, jobTitle, jobURL, unsubscribeURL),
	}
}
