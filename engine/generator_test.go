package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yo2158/break/debate"
	"github.com/yo2158/break/llm"
	"github.com/yo2158/break/model"
)

// fakeCompleter serves canned responses routed by which phase the prompt
// asks for, keyed on the JSON field names each prompt template demands.
type fakeCompleter struct {
	mu       sync.Mutex
	axis     string
	round1   string
	round2   string
	judgment string
	delay    time.Duration
	errs     map[model.Role]error
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[req.Role]; err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("empty request")
	}
	prompt := req.Messages[len(req.Messages)-1].Content

	var content string
	switch {
	case strings.Contains(prompt, "break_candidates"):
		content = f.judgment
	case strings.Contains(prompt, "axis_id"):
		content = f.axis
	case strings.Contains(prompt, "final_statement"):
		content = f.round2
	case strings.Contains(prompt, "preemptive_counter"):
		content = f.round1
	}
	if content == "" {
		return nil, errors.New("no canned response for prompt")
	}
	return &llm.Response{Content: content}, nil
}

const (
	axisJSON = `{"axis_id":5,"axis_left":"効率最適化","axis_right":"人間中心主義",` +
		`"ai_a_stance":"効率を最優先する立場","ai_b_stance":"人間性を最優先する立場",` +
		`"axis_reasoning":"生産性と働きがいの対立"}`

	round1JSON = `{"claim":"主張","rationale":["根拠1","根拠2"],"preemptive_counter":"先制反論"}`
	round2JSON = `{"counters":["反論1"],"final_statement":"最終弁論","confidence_level":"high"}`

	judgmentJSON = `{
		"scores":{"ai_a":{"logic":8,"attack":7,"construct":12},"ai_b":{"logic":9,"attack":8,"construct":7}},
		"winner":"AI_A",
		"break_candidates":[
			{"ai":"AI_B","round":2,"category":"ATTACK","score":9,"quote":"決定打"},
			{"ai":"AI_A","round":1,"category":"LOGIC","score":7,"quote":"論理"}
		],
		"break_shot":{"ai":"AI_A","category":"LOGIC","score":5,"quote":"予備"},
		"reasoning":"判定理由","synthesis":"統合見解"}`

	judgmentNoCandidatesJSON = `{
		"scores":{"ai_a":{"logic":8,"attack":7,"construct":10},"ai_b":{"logic":9,"attack":8,"construct":7}},
		"winner":"AI_A",
		"break_candidates":[],
		"break_shot":{"ai":"AI_A","category":"LOGIC","score":5,"quote":"予備"},
		"reasoning":"判定理由","synthesis":"統合見解"}`
)

func TestSelectAxis(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{axis: "```json\n" + axisJSON + "\n```"}, nil)

	axis, err := gen.SelectAxis(context.Background(), "リモートワークを廃止すべきか")
	require.NoError(t, err)
	assert.Equal(t, 5, axis.ID)
	assert.Equal(t, "効率最適化", axis.Left)
	assert.Equal(t, "人間中心主義", axis.Right)
	assert.Equal(t, "効率を最優先する立場", axis.StanceA)
}

func TestSelectAxisNotApplicable(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{axis: `{"axis_id":0,"reason":"一人称の悩み相談のため"}`}, nil)

	_, err := gen.SelectAxis(context.Background(), "明日の天気が心配です")
	require.Error(t, err)
	assert.True(t, IsNotApplicable(err))
	assert.Contains(t, err.Error(), "一人称の悩み相談のため")
}

func TestSelectAxisFallsBackOnGarbage(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{axis: "すみません、JSONでは答えられません。"}, nil)

	axis, err := gen.SelectAxis(context.Background(), "十分に長いテーマです")
	require.NoError(t, err)
	assert.Equal(t, debate.DefaultAxis(), axis)
}

func TestSelectAxisFillsNamesFromCatalog(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{axis: `{"axis_id":1,"reasoning":"理由のみ"}`}, nil)

	axis, err := gen.SelectAxis(context.Background(), "十分に長いテーマです")
	require.NoError(t, err)
	pattern := debate.AxisByID(1)
	require.NotNil(t, pattern)
	assert.Equal(t, pattern.Left, axis.Left)
	assert.Equal(t, pattern.Right, axis.Right)
}

func sampleAxis() debate.Axis {
	return debate.Axis{
		ID: 5, Left: "効率最適化", Right: "人間中心主義",
		StanceA: "効率を最優先する立場", StanceB: "人間性を最優先する立場",
	}
}

func TestGenerateRound1BothDebaters(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{round1: round1JSON}, nil)

	payload, err := gen.GenerateRound1(context.Background(), "topicです", sampleAxis())
	require.NoError(t, err)
	assert.Equal(t, "効率最適化", payload.AxisLeft)
	assert.Equal(t, "主張", payload.A.Claim)
	assert.Equal(t, []string{"根拠1", "根拠2"}, payload.B.Rationale)
}

func TestGenerateRound1FailsWhenOneDebaterFails(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{
		round1: round1JSON,
		errs:   map[model.Role]error{model.RoleDebaterB: errors.New("provider down")},
	}, nil)

	_, err := gen.GenerateRound1(context.Background(), "topicです", sampleAxis())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestGenerateRound2RebutsOpponent(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{round2: round2JSON}, nil)

	round1 := debate.Round1Payload{
		A: debate.Round1Position{Claim: "Aの主張"},
		B: debate.Round1Position{Claim: "Bの主張"},
	}
	payload, err := gen.GenerateRound2(context.Background(), "topicです", sampleAxis(), round1)
	require.NoError(t, err)
	assert.Equal(t, []string{"反論1"}, payload.A.Counters)
	assert.Equal(t, "最終弁論", payload.B.FinalStatement)
	assert.Equal(t, debate.ConfidenceHigh, payload.A.Confidence)
}

func TestJudgeNormalizesVerdict(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{judgment: judgmentJSON}, nil)

	j, err := gen.Judge(context.Background(), "topicです", sampleAxis(),
		debate.Round1Payload{}, debate.Round2Payload{})
	require.NoError(t, err)

	// construct 12 clamps to 10, totals recomputed as flat sums
	assert.Equal(t, 10, j.Scores.A.Construct)
	assert.Equal(t, 25, j.Scores.A.Total)
	assert.Equal(t, 24, j.Scores.B.Total)

	// winner recomputed from totals, overriding the judge's claim
	assert.Equal(t, debate.DebaterA, j.Winner)

	// highest-scoring candidate wins the break shot
	assert.Equal(t, debate.DebaterB, j.BreakShot.AI)
	assert.Equal(t, "決定打", j.BreakShot.Quote)
	assert.Equal(t, 9, j.BreakShot.Score)

	assert.Equal(t, "効率最適化", j.AxisLeft)
	assert.Equal(t, "判定理由", j.Reasoning)
}

func TestJudgeFallsBackToLiteralBreakShot(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{judgment: judgmentNoCandidatesJSON}, nil)

	j, err := gen.Judge(context.Background(), "topicです", sampleAxis(),
		debate.Round1Payload{}, debate.Round2Payload{})
	require.NoError(t, err)
	assert.Equal(t, "予備", j.BreakShot.Quote)
}

func TestJudgeParseFailure(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{judgment: "判定できませんでした"}, nil)

	_, err := gen.Judge(context.Background(), "topicです", sampleAxis(),
		debate.Round1Payload{}, debate.Round2Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judgment parse")
}
