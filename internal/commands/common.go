package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/mutation"
	"todo/internal/output"
	"todo/internal/service"
)

// dateLayout is the format of every date flag.
const dateLayout = "2006-01-02"

// usageError is a mistake on the command line, reported as a user error.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// report prints err and maps it to an exit code. Auth failures raise the
// session-expiry signal instead of printing; the mounted dialog reports them.
func (e *Env) report(errOut io.Writer, err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, ErrTaskRefRequired):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	case service.IsAuth(err):
		e.Log().Debug("auth failure", "err", err)
		e.Expiry.Signal()
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: %s\n", service.DisplayMessage(err.Error()))
	return exitcode.FromError(err)
}

// controller builds a mutation controller whose notifications go to out and errOut.
func (e *Env) controller(out, errOut io.Writer, refresher mutation.Refresher, confirmer mutation.Confirmer) *mutation.Controller {
	return mutation.New(e.Service, mutation.Options{
		Bus:       e.Expiry,
		Notifier:  output.NewNotifier(out, errOut, e.Quiet(), output.ColorEnabled(out)),
		Confirmer: confirmer,
		Refresher: refresher,
		Logger:    e.Log(),
	})
}

// printer builds a task printer for out in the user's timezone.
func (e *Env) printer(ctx context.Context, out io.Writer) *output.Printer {
	return output.NewPrinter(out, output.Options{
		Color:    output.ColorEnabled(out),
		Location: e.Location(ctx),
		Now:      e.Now,
	})
}

// outputFormat returns flagValue, or the configured default when it is empty.
func (e *Env) outputFormat(flagValue string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flagValue))
	if format == "" && e.Config != nil {
		format = e.Config.Output
	}
	if format == "" {
		format = output.FormatText
	}
	if err := config.ValidateOutput(format); err != nil {
		return "", &usageError{msg: err.Error()}
	}
	return format, nil
}

// promptConfirmer asks on w and reads the answer from the command input.
type promptConfirmer struct {
	env *Env
	w   io.Writer
}

func (p promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	answer, err := p.env.Prompt(p.w, prompt+" [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// assumeYes confirms without asking.
type assumeYes struct{}

func (assumeYes) Confirm(context.Context, string) bool { return true }

// outcomeCode maps a mutation outcome to an exit code. The controller has
// already notified the user.
func outcomeCode(o mutation.Outcome) int {
	switch o.Kind {
	case mutation.Success, mutation.Skipped:
		return exitcode.Success
	case mutation.AuthFailure:
		return exitcode.AuthError
	}
	if o.ErrKind == service.KindValidation {
		return exitcode.UserError
	}
	return exitcode.BackendError
}

// parseDate parses a YYYY-MM-DD flag as midnight in loc.
func parseDate(name, value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, userErrorf("invalid %s date: %s (want YYYY-MM-DD)", name, value)
	}
	return d, nil
}

// worst keeps the most severe of two exit codes.
func worst(a, b int) int {
	if b > a {
		return b
	}
	return a
}
