package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ChallengeKind names the out-of-band code a ChallengeContext asks for.
type ChallengeKind string

const (
	ChallengeOneTimeCode       ChallengeKind = "one-time-code"
	ChallengeEmailConfirmation ChallengeKind = "email-confirmation"
)

// ChallengeContext describes a pending verification step.
type ChallengeContext struct {
	Kind    ChallengeKind
	Account string
	URL     string
}

// Prompt returns a human-readable request for the code.
func (c ChallengeContext) Prompt() string {
	switch c.Kind {
	case ChallengeEmailConfirmation:
		return fmt.Sprintf("Enter the code or email requested for %s: ", c.Account)
	default:
		return fmt.Sprintf("Enter the verification code for %s: ", c.Account)
	}
}

// ChallengeResponder supplies the code for a verification step. It is the
// only place the login flow may block on a human.
type ChallengeResponder interface {
	ProvideCode(ctx context.Context, cc ChallengeContext) (string, error)
}

// ResponderFunc adapts a function to ChallengeResponder.
type ResponderFunc func(ctx context.Context, cc ChallengeContext) (string, error)

// ProvideCode calls f.
func (f ResponderFunc) ProvideCode(ctx context.Context, cc ChallengeContext) (string, error) {
	return f(ctx, cc)
}

// StaticResponder always answers with the same code.
type StaticResponder string

// ProvideCode returns the fixed code.
func (r StaticResponder) ProvideCode(context.Context, ChallengeContext) (string, error) {
	return string(r), nil
}

// ErrResponderDisabled is returned by FailingResponder.
var ErrResponderDisabled = errors.New("verification codes cannot be provided non-interactively")

// FailingResponder refuses every request. Use it where no human is present.
type FailingResponder struct{}

// ProvideCode always fails.
func (FailingResponder) ProvideCode(context.Context, ChallengeContext) (string, error) {
	return "", ErrResponderDisabled
}

// PromptResponder asks for the code on Out and reads one line from In.
// It blocks until a line arrives or ctx is done.
type PromptResponder struct {
	In  io.Reader
	Out io.Writer
}

// ProvideCode writes the prompt and reads the answer.
func (r PromptResponder) ProvideCode(ctx context.Context, cc ChallengeContext) (string, error) {
	if r.Out != nil {
		if _, err := fmt.Fprint(r.Out, cc.Prompt()); err != nil {
			return "", err
		}
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r.In).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{strings.TrimSpace(line), err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", fmt.Errorf("read verification code: %w", res.err)
		}
		return res.line, nil
	}
}
