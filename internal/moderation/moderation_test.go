package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

type stubClassifier struct {
	result Result
	err    error
	delay  time.Duration
	panics bool
}

func (s *stubClassifier) Classify(ctx context.Context, _ string) (Result, error) {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return s.result, s.err
}

// hangingClassifier ignores cancellation entirely.
type hangingClassifier struct{}

func (hangingClassifier) Classify(context.Context, string) (Result, error) {
	time.Sleep(time.Hour)
	return Result{Safe: true}, nil
}

func TestClient_Safe(t *testing.T) {
	c := NewClient(&stubClassifier{result: Result{Safe: true, Reason: "whatever"}}, time.Second)

	v := c.Classify(context.Background(), "hello")
	assert.Equal(t, domain.ModerationSafe, v.Status)
	assert.Equal(t, "N/A", v.Reason)
}

func TestClient_UnsafeKeepsReason(t *testing.T) {
	c := NewClient(&stubClassifier{result: Result{Reason: "harassment"}}, time.Second)

	v := c.Classify(context.Background(), "x")
	assert.Equal(t, domain.ModerationUnsafe, v.Status)
	assert.Equal(t, "harassment", v.Reason)
}

func TestClient_UnsafeDefaultReason(t *testing.T) {
	for _, reason := range []string{"", "  ", "N/A"} {
		c := NewClient(&stubClassifier{result: Result{Reason: reason}}, time.Second)
		v := c.Classify(context.Background(), "x")
		assert.Equal(t, domain.ModerationUnsafe, v.Status)
		assert.Equal(t, "Content flagged by AI.", v.Reason)
	}
}

func TestClient_ProviderError(t *testing.T) {
	c := NewClient(&stubClassifier{err: errors.New("quota exceeded")}, time.Second)

	v := c.Classify(context.Background(), "x")
	assert.Equal(t, domain.ModerationError, v.Status)
	assert.Contains(t, v.Reason, "quota exceeded")
}

func TestClient_TimeoutIsBounded(t *testing.T) {
	c := NewClient(hangingClassifier{}, 50*time.Millisecond)

	start := time.Now()
	v := c.Classify(context.Background(), "x")
	elapsed := time.Since(start)

	assert.Equal(t, domain.ModerationError, v.Status)
	assert.Contains(t, v.Reason, "timed out")
	assert.Less(t, elapsed, time.Second)
}

func TestClient_CooperativeTimeout(t *testing.T) {
	c := NewClient(&stubClassifier{delay: time.Minute, result: Result{Safe: true}}, 20*time.Millisecond)

	v := c.Classify(context.Background(), "x")
	assert.Equal(t, domain.ModerationError, v.Status)
	assert.NotEmpty(t, v.Reason)
}

func TestClient_PanicBecomesError(t *testing.T) {
	c := NewClient(&stubClassifier{panics: true}, time.Second)

	v := c.Classify(context.Background(), "x")
	assert.Equal(t, domain.ModerationError, v.Status)
	assert.Contains(t, v.Reason, "panic")
}

func TestClient_NilClassifier(t *testing.T) {
	c := NewClient(nil, 0)

	assert.Equal(t, DefaultTimeout, c.Timeout())
	v := c.Classify(context.Background(), "x")
	assert.Equal(t, domain.ModerationError, v.Status)
	assert.Equal(t, "AI unavailable", v.Reason)
}

func TestWordlistClassifier(t *testing.T) {
	w, err := NewWordlistClassifier([]string{"spam", "", "scam"})
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		safe bool
	}{
		{"clean", "hello there", true},
		{"exact", "buy spam now", false},
		{"upper", "SCAM alert", false},
		{"leet", "5p4m", false},
		{"spaced", "s.p.a.m", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := w.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.safe, res.Safe)
			if !tt.safe {
				assert.Contains(t, res.Reason, "contains blocked term")
			}
		})
	}
}

func TestWordlistClassifier_Empty(t *testing.T) {
	w, err := NewWordlistClassifier(nil)
	require.NoError(t, err)

	res, err := w.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, res.Safe)
}

func TestWordlistThroughClient(t *testing.T) {
	w, err := NewWordlistClassifier([]string{"spam"})
	require.NoError(t, err)

	v := NewClient(w, time.Second).Classify(context.Background(), "spam")
	assert.Equal(t, domain.ModerationUnsafe, v.Status)
	assert.Equal(t, "contains blocked term: spam", v.Reason)
}

func TestParseJudgement(t *testing.T) {
	res, err := parseJudgement(`{"is_safe": true, "reason": "N/A"}`)
	require.NoError(t, err)
	assert.True(t, res.Safe)

	res, err = parseJudgement(` {"is_safe": false, "reason": "insult"} `)
	require.NoError(t, err)
	assert.False(t, res.Safe)
	assert.Equal(t, "insult", res.Reason)

	_, err = parseJudgement(`{"reason": "x"}`)
	assert.Error(t, err)

	_, err = parseJudgement(`not json`)
	assert.Error(t, err)

	_, err = parseJudgement("")
	assert.ErrorIs(t, err, errEmptyResponse)
}
