package transcript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/agents/video-qa/youtube"
	"video-qa/internal/models"
	"video-qa/shared/ai"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestAcquireInvalidURL(t *testing.T) {
	direct := &fakeStrategy{name: "direct", text: "text"}
	a := NewAcquirer(fakeTitles{title: "t"}, Options{}, direct)

	res, err := a.Acquire(context.Background(), "https://example.com/nothing-here")
	assert.ErrorIs(t, err, youtube.ErrInvalidURL)
	assert.Nil(t, res)
	assert.Zero(t, direct.calls)
}

func TestAcquireShortCircuits(t *testing.T) {
	direct := &fakeStrategy{name: "direct", text: "never gonna give you up"}
	proxy := &fakeStrategy{name: "proxy", text: "unused"}
	captions := &fakeStrategy{name: "captions", text: "unused"}
	audio := &fakeStrategy{name: "audio", text: "unused"}

	a := NewAcquirer(fakeTitles{title: "Rick Astley"}, Options{}, direct, proxy, captions, audio)
	res, err := a.Acquire(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, "Rick Astley", res.Title)
	assert.Equal(t, "never gonna give you up", res.Transcript)
	assert.True(t, res.Found)
	assert.Equal(t, "direct", res.Strategy)
	assert.Equal(t, "dQw4w9WgXcQ", res.Video.ID)
	assert.Equal(t, 1, direct.calls)
	assert.Zero(t, proxy.calls+captions.calls+audio.calls)
}

func TestAcquireFallsBackInOrder(t *testing.T) {
	direct := &fakeStrategy{name: "direct", err: youtube.ErrTranscriptsDisabled}
	proxy := &fakeStrategy{name: "proxy", err: ErrProxyPoolExhausted}
	captions := &fakeStrategy{name: "captions", text: "from captions"}
	audio := &fakeStrategy{name: "audio", text: "unused"}

	var seen []string
	a := NewAcquirer(fakeTitles{title: "t"}, Options{OnAttempt: func(at models.AcquisitionAttempt) {
		seen = append(seen, at.Strategy)
	}}, direct, proxy, captions, audio)

	res, err := a.Acquire(context.Background(), watchURL)
	require.NoError(t, err)
	assert.Equal(t, "from captions", res.Transcript)
	assert.Equal(t, "captions", res.Strategy)
	assert.Equal(t, []string{"direct", "proxy", "captions"}, seen)
	require.Len(t, res.Attempts, 3)
	assert.ErrorIs(t, res.Attempts[0].Err, youtube.ErrTranscriptsDisabled)
	assert.NotEmpty(t, res.Attempts[1].Cause)
	assert.True(t, res.Attempts[2].Success)
	assert.Zero(t, audio.calls)
}

func TestAcquireExhaustionReturnsSentinel(t *testing.T) {
	strategies := []Strategy{
		&fakeStrategy{name: "direct", err: youtube.ErrTranscriptsDisabled},
		&fakeStrategy{name: "proxy", err: ErrProxyPoolExhausted},
		&fakeStrategy{name: "captions", err: ErrNoCaptionTracks},
		&fakeStrategy{name: "audio", err: ai.ErrUnintelligible},
	}

	a := NewAcquirer(fakeTitles{title: "Silent Film"}, Options{}, strategies...)
	res, err := a.Acquire(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, models.NoTranscript, res.Transcript)
	assert.Equal(t, "[No transcript available]", res.Transcript)
	assert.False(t, res.Found)
	assert.Empty(t, res.Strategy)
	assert.Equal(t, "Silent Film", res.Title)
	assert.Len(t, res.Attempts, 4)
}

func TestAcquireEmptyTextIsNotSuccess(t *testing.T) {
	direct := &fakeStrategy{name: "direct", text: "   "}
	audio := &fakeStrategy{name: "audio", text: "recognized"}

	res, err := NewAcquirer(nil, Options{}, direct, audio).Acquire(context.Background(), watchURL)
	require.NoError(t, err)
	assert.Equal(t, "recognized", res.Transcript)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrEmptyTranscript)
}

func TestAcquireTitleFailureDegrades(t *testing.T) {
	tests := []struct {
		name   string
		titles TitleSource
	}{
		{name: "lookup error", titles: fakeTitles{err: youtube.ErrVideoNotFound}},
		{name: "missing key", titles: fakeTitles{err: youtube.ErrMissingAPIKey}},
		{name: "blank title", titles: fakeTitles{title: "  "}},
		{name: "no title source", titles: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct := &fakeStrategy{name: "direct", text: "transcript"}
			res, err := NewAcquirer(tt.titles, Options{}, direct).Acquire(context.Background(), watchURL)
			require.NoError(t, err)
			assert.Equal(t, models.UnknownTitle, res.Title)
			assert.Equal(t, "transcript", res.Transcript)
		})
	}
}

// slowStrategy blocks until its context is done.
type slowStrategy struct{}

func (slowStrategy) Name() string { return "slow" }

func (slowStrategy) Acquire(ctx context.Context, _ models.VideoReference) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeoutLetsLaterStrategiesRun(t *testing.T) {
	audio := &fakeStrategy{name: "audio", text: "eventually"}
	a := NewAcquirer(nil, Options{}, WithTimeout(slowStrategy{}, 20*time.Millisecond), audio)

	start := time.Now()
	res, err := a.Acquire(context.Background(), watchURL)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "eventually", res.Transcript)
	assert.True(t, errors.Is(res.Attempts[0].Err, context.DeadlineExceeded))
	assert.Equal(t, "slow", res.Attempts[0].Strategy)
}

func TestWithTimeoutNonPositiveIsIdentity(t *testing.T) {
	s := &fakeStrategy{name: "direct"}
	assert.Same(t, s, WithTimeout(s, 0))
}

func TestAcquirerStrategies(t *testing.T) {
	a := NewAcquirer(nil, Options{}, &fakeStrategy{name: "direct"}, WithTimeout(&fakeStrategy{name: "audio"}, time.Second))
	assert.Equal(t, []string{"direct", "audio"}, a.Strategies())
}
