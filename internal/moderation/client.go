package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

// DefaultTimeout bounds a single classifier call.
const DefaultTimeout = 5 * time.Second

const (
	reasonUnavailable = "AI unavailable"
	reasonFlagged     = "Content flagged by AI."
)

// Client wraps one classifier call with a timeout and maps every outcome to
// a Verdict. It performs no retries.
type Client struct {
	classifier Classifier
	timeout    time.Duration
}

// NewClient creates a Client. A nil classifier yields error verdicts, which
// is how a missing provider configuration surfaces to clients.
func NewClient(classifier Classifier, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{classifier: classifier, timeout: timeout}
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type outcome struct {
	result Result
	err    error
}

func (c *Client) Classify(ctx context.Context, text string) domain.Verdict {
	if c.classifier == nil {
		return domain.Verdict{Status: domain.ModerationError, Reason: reasonUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Buffered so the provider goroutine can finish after we stop waiting.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		res, err := c.classifier.Classify(ctx, text)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return c.failed(ctx, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return c.failed(ctx, out.err)
		}
		return verdictFor(out.result)
	}
}

func (c *Client) failed(ctx context.Context, err error) domain.Verdict {
	reason := fmt.Sprintf("AI moderation failed: %v", err)
	if errors.Is(err, context.DeadlineExceeded) {
		reason = fmt.Sprintf("AI moderation timed out after %s", c.timeout)
	}

	l := log.Ctx(ctx)
	l.Warn().Err(err).Msg("moderation degraded to error verdict")

	return domain.Verdict{Status: domain.ModerationError, Reason: reason}
}

func verdictFor(res Result) domain.Verdict {
	if res.Safe {
		return domain.Verdict{Status: domain.ModerationSafe, Reason: domain.ReasonNotApplicable}
	}
	reason := strings.TrimSpace(res.Reason)
	if reason == "" || reason == domain.ReasonNotApplicable {
		reason = reasonFlagged
	}
	return domain.Verdict{Status: domain.ModerationUnsafe, Reason: reason}
}
