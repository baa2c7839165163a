package lead

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/estimator/internal/content"
)

func TestSubmission_Gate(t *testing.T) {
	s := NewSubmission(validContact())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, Idle, s.State())
	assert.False(t, s.Ready())

	s.ProvideResults(&content.Results{})
	assert.False(t, s.Ready(), "template still missing")

	s.ProvideTemplate(&content.EmailTemplate{})
	assert.True(t, s.Ready())

	noName := NewSubmission(Contact{Email: "jane@example.com"})
	noName.ProvideResults(&content.Results{})
	noName.ProvideTemplate(&content.EmailTemplate{})
	assert.False(t, noName.Ready())

	_, ok := noName.acquire()
	assert.False(t, ok)
}

func TestSubmission_LatchSingleWinner(t *testing.T) {
	s := NewSubmission(validContact())
	s.ProvideResults(&content.Results{})
	s.ProvideTemplate(&content.EmailTemplate{})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.acquire(); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, Processing, s.State())
}

func TestSubmission_FailReleasesLatch(t *testing.T) {
	s := NewSubmission(validContact())
	s.ProvideResults(&content.Results{})
	s.ProvideTemplate(&content.EmailTemplate{})

	_, ok := s.acquire()
	require.True(t, ok)
	s.markStep(StepConfirmation)

	boom := errors.New("boom")
	res := s.fail(StepNotification, boom)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, StepNotification, res.FailedStep)
	assert.ErrorIs(t, res.Err, boom)
	assert.True(t, s.StepCompleted(StepConfirmation))
	assert.False(t, s.StepCompleted(StepNotification))

	_, ok = s.acquire()
	require.True(t, ok, "failed submission can be retried")
	assert.Equal(t, Processing, s.State())
	assert.Equal(t, StepNone, s.Result().FailedStep)

	res = s.complete("acct-1")
	assert.Equal(t, Completed, res.State)
	assert.Equal(t, "acct-1", res.AccountID)

	_, ok = s.acquire()
	assert.False(t, ok, "completed submission never runs again")
}

func TestStateText(t *testing.T) {
	b, err := Failed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(b))

	b, err = StepCRM.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "crm", string(b))
}
