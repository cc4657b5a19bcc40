package intent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeIndex struct {
	matches []Match
	scale   ScoreScale
	err     error
	calls   int
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int) ([]Match, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Match, len(f.matches))
	copy(out, f.matches)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeIndex) Scale() ScoreScale {
	return f.scale
}

func match(id ID, text string, raw float64) Match {
	return Match{Example: Example{Intent: id, Text: text}, Raw: raw}
}

func TestClassifier_RuleOverride(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  ID
		ok    bool
	}{
		{name: "nda token", query: "Czy mogę zobaczyć projekt pod NDA?", want: NDAPrivacy, ok: true},
		{name: "plural prefix", query: "Do your NDAs cover this?", want: NDAPrivacy, ok: true},
		{name: "polish keyword", query: "Czy to jest poufne?", want: NDAPrivacy, ok: true},
		{name: "agenda is not nda", query: "What is the agenda for the interview?", ok: false},
		{name: "no keyword", query: "What is your leadership style?", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := &fakeIndex{scale: ScaleCosineSimilarity}
			c := NewClassifier(index, DefaultConfig())

			got, ok := c.MatchRule(tt.query)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, got)

			res, err := c.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			assert.True(t, res.Override)
			assert.Equal(t, tt.want, res.TopIntent)
			assert.Equal(t, 1.0, res.Confidence)
			assert.Equal(t, []Evidence{{Intent: tt.want, Score: 1, Text: tt.query}}, res.Evidence)
			assert.Equal(t, []Candidate{{Intent: tt.want, Score: 1}}, res.Candidates)
			assert.Zero(t, index.calls, "rule match must skip the index")
		})
	}
}

func TestClassifier_MultiWordRule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = append(cfg.Rules, Rule{Intent: Compensation, Keywords: []string{"salary range"}})
	c := NewClassifier(&fakeIndex{}, cfg)

	got, ok := c.MatchRule("What salary range do you expect?")
	require.True(t, ok)
	assert.Equal(t, Compensation, got)

	_, ok = c.MatchRule("What salary do you expect in that range?")
	assert.False(t, ok)
}

func TestClassifier_AggregatesTopVotes(t *testing.T) {
	index := &fakeIndex{
		scale: ScaleCosineSimilarity,
		matches: []Match{
			match(Leadership, "What is your leadership style?", 0.9),
			match(Leadership, "How do you mentor designers?", 0.8),
			match(Experience, "Walk me through your career.", 0.7),
			match(CaseStudy, "Tell me about a project.", 0.1),
		},
	}
	c := NewClassifier(index, DefaultConfig())

	res, err := c.Classify(context.Background(), "How do you lead a team?")
	require.NoError(t, err)

	assert.Equal(t, Leadership, res.TopIntent)
	assert.False(t, res.FellBack)
	assert.Equal(t, 1.0, res.Confidence, "summed votes above one are capped")
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, Leadership, res.Candidates[0].Intent)
	assert.InDelta(t, 0.95+0.9, res.Candidates[0].Score, 1e-9)
	assert.Equal(t, Experience, res.Candidates[1].Intent)
	assert.InDelta(t, 0.85, res.Candidates[1].Score, 1e-9)
	require.Len(t, res.Evidence, 4)
	assert.Equal(t, "What is your leadership style?", res.Evidence[0].Text)
}

func TestClassifier_OnlyAggregateKVotes(t *testing.T) {
	var matches []Match
	for range 6 {
		matches = append(matches, match(Leadership, "lead", 0.2))
	}
	for range 4 {
		matches = append(matches, match(Experience, "career", 0.1))
	}
	cfg := DefaultConfig()
	cfg.AggregateK = 6
	c := NewClassifier(&fakeIndex{scale: ScaleCosineSimilarity, matches: matches}, cfg)

	res, err := c.Classify(context.Background(), "question")
	require.NoError(t, err)
	assert.Len(t, res.Evidence, 6)
	assert.Len(t, res.Candidates, 1, "lower examples fall outside the vote")
	assert.Equal(t, Leadership, res.TopIntent)
}

func TestClassifier_PriorityBreaksTies(t *testing.T) {
	index := &fakeIndex{
		scale: ScaleCosineSimilarity,
		matches: []Match{
			match(AssetsRequest, "Send me your portfolio", 0.6),
			match(NDAPrivacy, "Are these projects confidential", 0.6),
		},
	}
	c := NewClassifier(index, DefaultConfig())

	res, err := c.Classify(context.Background(), "can you share that project")
	require.NoError(t, err)
	assert.Equal(t, NDAPrivacy, res.TopIntent)
	assert.Equal(t, NDAPrivacy, res.Candidates[0].Intent)
	assert.Equal(t, AssetsRequest, res.Candidates[1].Intent)
}

func TestClassifier_TiesOutsidePriorityUseID(t *testing.T) {
	index := &fakeIndex{
		scale: ScaleCosineSimilarity,
		matches: []Match{
			match(Leadership, "b", 0.5),
			match(Experience, "a", 0.5),
		},
	}
	c := NewClassifier(index, DefaultConfig())

	res, err := c.Classify(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, Experience, res.TopIntent)
}

func TestClassifier_BelowThresholdFallsBack(t *testing.T) {
	index := &fakeIndex{
		scale: ScaleCosineSimilarity,
		matches: []Match{
			match(Smalltalk, "hello", -0.4),
			match(CaseStudy, "project", -0.6),
		},
	}
	c := NewClassifier(index, DefaultConfig())

	res, err := c.Classify(context.Background(), "hmm")
	require.NoError(t, err)
	assert.Equal(t, Clarification, res.TopIntent)
	assert.True(t, res.FellBack)
	assert.InDelta(t, 0.3, res.Confidence, 1e-9)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, Smalltalk, res.Candidates[0].Intent)
}

func TestClassifier_EmptyIndex(t *testing.T) {
	c := NewClassifier(&fakeIndex{scale: ScaleCosineSimilarity}, DefaultConfig())

	res, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, FallbackResult(), res)
}

func TestClassifier_IndexError(t *testing.T) {
	sentinel := errors.New("embedding unavailable")
	c := NewClassifier(&fakeIndex{err: sentinel}, DefaultConfig())

	_, err := c.Classify(context.Background(), "anything")
	require.ErrorIs(t, err, sentinel)
}

func TestClassifier_OrderIndependent(t *testing.T) {
	base := []Match{
		match(Leadership, "alpha", 0.5),
		match(Experience, "beta", 0.5),
		match(CaseStudy, "gamma", 0.5),
		match(Leadership, "delta", 0.5),
		match(Experience, "epsilon", 0.5),
		match(CaseStudy, "zeta", 0.5),
		match(Behavioral, "eta", 0.5),
	}
	reversed := make([]Match, len(base))
	for i, m := range base {
		reversed[len(base)-1-i] = m
	}

	c1 := NewClassifier(&fakeIndex{scale: ScaleCosineSimilarity, matches: base}, DefaultConfig())
	c2 := NewClassifier(&fakeIndex{scale: ScaleCosineSimilarity, matches: reversed}, DefaultConfig())

	r1, err := c1.Classify(context.Background(), "q")
	require.NoError(t, err)
	r2, err := c2.Classify(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Len(t, r1.Evidence, 6)
	assert.Equal(t, "alpha", r1.Evidence[0].Text)
}

func TestClassifier_ConfigScaleOverridesIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scale = ScaleCosineDistance
	index := &fakeIndex{
		scale:   ScaleCosineSimilarity,
		matches: []Match{match(Leadership, "lead", 0.2)},
	}
	c := NewClassifier(index, cfg)

	res, err := c.Classify(context.Background(), "q")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Evidence[0].Score, 1e-9)
	assert.Equal(t, Leadership, res.TopIntent)
}
