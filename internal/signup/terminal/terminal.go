// Package terminal is an interactive line-based front-end for one signup
// workflow. It drives the same controller as the HTTP API.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"signupgate/internal/signup/models"
	"signupgate/internal/signup/service"
	id "signupgate/pkg/domain"
	dErrors "signupgate/pkg/domain-errors"
)

// Presenter prints notices and the sign-in hand-off to the terminal.
type Presenter struct {
	out       io.Writer
	signInURL string
	done      bool
}

func NewPresenter(out io.Writer, signInURL string) *Presenter {
	return &Presenter{out: out, signInURL: signInURL}
}

func (p *Presenter) Notify(_ context.Context, notice models.Notice) {
	paint := color.New(color.FgRed, color.Bold)
	if notice.Kind == models.NoticeSignupComplete {
		paint = color.New(color.FgGreen, color.Bold)
	}
	_, _ = paint.Fprintf(p.out, "[!] %s\n", notice.Message)
}

func (p *Presenter) ProceedToSignIn(_ context.Context, _ id.WorkflowID) {
	p.done = true
	_, _ = fmt.Fprintf(p.out, "Continue to sign in: %s\n", p.signInURL)
}

// Done reports whether the user was sent to sign in.
func (p *Presenter) Done() bool {
	return p.done
}

var fieldPrompts = []struct {
	field string
	label string
}{
	{models.FieldEmail, "Email"},
	{models.FieldUsername, "Name"},
	{models.FieldPassword, "Password"},
	{models.FieldPasswordConfirm, "Confirm password"},
	{models.FieldPhoneNumber, "Mobile number"},
}

// Session reads commands from in and writes the form state to out.
type Session struct {
	wf        *service.Workflow
	presenter *Presenter
	in        *bufio.Scanner
	out       io.Writer
}

func NewSession(wf *service.Workflow, presenter *Presenter, in io.Reader, out io.Writer) *Session {
	return &Session{wf: wf, presenter: presenter, in: bufio.NewScanner(in), out: out}
}

// Run loops until the user quits, input ends or the signup completes.
func (s *Session) Run(ctx context.Context) error {
	for !s.presenter.Done() {
		s.render()
		s.printf("\n[e]dit form  [r]equest code  [c]onfirm code  [s]ubmit  [q]uit > ")
		line, ok := s.readLine()
		if !ok {
			return nil
		}
		switch strings.ToLower(line) {
		case "e", "edit":
			s.editForm(ctx)
		case "r", "request":
			s.report(s.wf.RequestCode(ctx))
		case "c", "confirm":
			s.printf("Verification code: ")
			code, ok := s.readLine()
			if !ok {
				return nil
			}
			if err := s.wf.UpdateDraft(ctx, models.DraftPatch{VerificationCode: &code}); err != nil {
				s.printError(err)
				continue
			}
			s.report(s.wf.ConfirmCode(ctx))
		case "s", "submit":
			if err := s.wf.Submit(ctx); err != nil {
				s.printError(err)
			}
		case "q", "quit":
			return nil
		case "":
		default:
			s.printf("unknown command %q\n", line)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) editForm(ctx context.Context) {
	for _, p := range fieldPrompts {
		s.printf("%s (enter to keep): ", p.label)
		value, ok := s.readLine()
		if !ok {
			return
		}
		if value == "" {
			continue
		}
		patch := patchFor(p.field, value)
		if err := s.wf.UpdateDraft(ctx, patch); err != nil {
			s.printError(err)
		}
	}
}

func patchFor(field, value string) models.DraftPatch {
	var patch models.DraftPatch
	switch field {
	case models.FieldEmail:
		patch.Email = &value
	case models.FieldUsername:
		patch.Username = &value
	case models.FieldPassword:
		patch.Password = &value
	case models.FieldPasswordConfirm:
		patch.PasswordConfirm = &value
	case models.FieldPhoneNumber:
		patch.PhoneNumber = &value
	}
	return patch
}

func (s *Session) render() {
	snap := s.wf.Snapshot()
	bold := color.New(color.Bold)
	s.printf("\n")
	_, _ = bold.Fprintf(s.out, "Sign up (%s)\n", snap.Verification)
	s.printf("  Email:    %s\n", snap.Draft.Email)
	if snap.Messages.Send != "" {
		s.printf("            %s\n", color.CyanString(snap.Messages.Send))
	}
	if snap.Controls.CanEditCode {
		s.printf("  Code:     %s\n", snap.Draft.VerificationCode)
	}
	if snap.Messages.Confirm != "" {
		s.printf("            %s\n", color.CyanString(snap.Messages.Confirm))
	}
	s.printf("  Name:     %s\n", snap.Draft.Username)
	s.printf("  Password: %s\n", snap.Draft.Password)
	s.printf("  Mobile:   %s\n", snap.Draft.PhoneNumber)
	if snap.Messages.Submit != "" {
		s.printf("  %s\n", color.CyanString(snap.Messages.Submit))
	}

	fields := make([]string, 0, len(snap.FieldErrors))
	for f := range snap.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		s.printf("  %s %s\n", color.RedString(f+":"), snap.FieldErrors[f])
	}
}

func (s *Session) report(res models.StepResult, err error) {
	if err != nil {
		s.printError(err)
		return
	}
	if !res.Accepted && res.Message != "" {
		s.printf("%s\n", color.YellowString(res.Message))
	}
}

func (s *Session) printError(err error) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		// transport failures were already shown as notices
		if de.Code == dErrors.CodeUnavailable {
			return
		}
		s.printf("%s\n", color.YellowString(de.Message))
		return
	}
	s.printf("%s\n", color.YellowString(err.Error()))
}

func (s *Session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
