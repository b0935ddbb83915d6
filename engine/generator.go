package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yo2158/break/debate"
	"github.com/yo2158/break/llm"
	"github.com/yo2158/break/model"
)

// Generation temperatures. Debaters get room to argue; the judge stays
// deterministic enough to score consistently.
var (
	debaterTemperature = 0.7
	judgeTemperature   = 0.3
)

// Completer is the slice of the LLM client the generator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Generator produces the four debate phases by prompting the configured
// roles and parsing their structured responses.
type Generator struct {
	llm    Completer
	logger *slog.Logger
}

// NewGenerator wires a generator to an LLM completer. logger may be nil.
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: completer, logger: logger}
}

func debaterRole(d debate.Debater) model.Role {
	if d == debate.DebaterA {
		return model.RoleDebaterA
	}
	return model.RoleDebaterB
}

func (g *Generator) complete(ctx context.Context, role model.Role, prompt string, temperature float64) (string, error) {
	resp, err := g.llm.Complete(ctx, llm.Request{
		Role:        role,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// axisResponse is the judge's raw axis analysis. ID 0 means the topic
// cannot be framed as a two-sided debate. The prompt asks for the pick
// reason under "reasoning"; some models emit "reason" instead, so both
// are accepted.
type axisResponse struct {
	debate.Axis
	PickReason string `json:"reasoning,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SelectAxis asks the judge role to pick the conflict axis for a topic.
// An unsuitable topic surfaces as a ValidationError; an unparseable
// response falls back to the general-purpose default axis rather than
// failing the session.
func (g *Generator) SelectAxis(ctx context.Context, topic string) (debate.Axis, error) {
	content, err := g.complete(ctx, model.RoleJudge, debate.BuildAxisPrompt(topic), judgeTemperature)
	if err != nil {
		return debate.Axis{}, fmt.Errorf("axis analysis: %w", err)
	}

	var parsed axisResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &parsed); err != nil {
		g.logger.Warn("axis response unparseable, using default axis",
			"topic", topic, "error", err)
		return debate.DefaultAxis(), nil
	}

	if parsed.ID == 0 {
		reason := parsed.Reason
		if reason == "" {
			reason = parsed.PickReason
		}
		if reason == "" {
			reason = "このテーマは二項対立として議論できません"
		}
		return debate.Axis{}, NewNotApplicableError(reason)
	}

	axis := parsed.Axis
	if axis.Reasoning == "" {
		axis.Reasoning = parsed.PickReason
	}
	if axis.Left == "" || axis.Right == "" {
		if p := debate.AxisByID(axis.ID); p != nil {
			axis.Left = p.Left
			axis.Right = p.Right
		} else {
			g.logger.Warn("axis response incomplete, using default axis", "topic", topic)
			return debate.DefaultAxis(), nil
		}
	}
	return axis, nil
}

// GenerateRound1 runs both opening statements in parallel.
func (g *Generator) GenerateRound1(ctx context.Context, topic string, axis debate.Axis) (debate.Round1Payload, error) {
	a, b, err := runBoth(ctx, func(ctx context.Context, d debate.Debater) (debate.Round1Position, error) {
		stance, opponent := stances(axis, d)
		content, err := g.complete(ctx, debaterRole(d), debate.BuildRound1Prompt(topic, stance, opponent), debaterTemperature)
		if err != nil {
			return debate.Round1Position{}, fmt.Errorf("%s round 1: %w", d, err)
		}
		var pos debate.Round1Position
		if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &pos); err != nil {
			return debate.Round1Position{}, fmt.Errorf("%s round 1 parse: %w", d, err)
		}
		return pos, nil
	})
	if err != nil {
		return debate.Round1Payload{}, err
	}
	return debate.Round1Payload{AxisLeft: axis.Left, AxisRight: axis.Right, A: a, B: b}, nil
}

// GenerateRound2 runs both rebuttals in parallel, each against the
// opponent's opening.
func (g *Generator) GenerateRound2(ctx context.Context, topic string, axis debate.Axis, round1 debate.Round1Payload) (debate.Round2Payload, error) {
	a, b, err := runBoth(ctx, func(ctx context.Context, d debate.Debater) (debate.Round2Position, error) {
		stance, opponent := stances(axis, d)
		opposing := round1.B
		if d == debate.DebaterB {
			opposing = round1.A
		}
		content, err := g.complete(ctx, debaterRole(d), debate.BuildRound2Prompt(topic, stance, opponent, opposing), debaterTemperature)
		if err != nil {
			return debate.Round2Position{}, fmt.Errorf("%s round 2: %w", d, err)
		}
		var pos debate.Round2Position
		if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &pos); err != nil {
			return debate.Round2Position{}, fmt.Errorf("%s round 2 parse: %w", d, err)
		}
		return pos, nil
	})
	if err != nil {
		return debate.Round2Payload{}, err
	}
	return debate.Round2Payload{AxisLeft: axis.Left, AxisRight: axis.Right, A: a, B: b}, nil
}

// judgeVerdict is the judge's raw response: the verdict plus the scored
// quote candidates the break shot is selected from.
type judgeVerdict struct {
	debate.Judgment
	BreakCandidates []debate.BreakCandidate `json:"break_candidates"`
}

// Judge scores the finished debate. The judge's raw verdict is normalized
// before it is trusted: sub-scores are clamped and re-totaled, the winner
// is recomputed from the totals, and the break shot is selected from the
// judge's candidates with its literal break_shot as fallback.
func (g *Generator) Judge(ctx context.Context, topic string, axis debate.Axis, round1 debate.Round1Payload, round2 debate.Round2Payload) (debate.Judgment, error) {
	content, err := g.complete(ctx, model.RoleJudge, debate.BuildJudgmentPrompt(topic, axis, round1, round2), judgeTemperature)
	if err != nil {
		return debate.Judgment{}, fmt.Errorf("judgment: %w", err)
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &verdict); err != nil {
		return debate.Judgment{}, fmt.Errorf("judgment parse: %w", err)
	}

	j := verdict.Judgment
	j.Scores.Normalize()
	j.Winner = debate.DecideWinner(j.Scores.A, j.Scores.B)

	if shot, ok := debate.SelectBreakShot(verdict.BreakCandidates); ok {
		j.BreakShot = shot
	} else if !j.BreakShot.AI.IsValid() {
		j.BreakShot.AI = j.Winner
	}

	if j.AxisLeft == "" {
		j.AxisLeft = axis.Left
	}
	if j.AxisRight == "" {
		j.AxisRight = axis.Right
	}
	return j, nil
}

func stances(axis debate.Axis, d debate.Debater) (stance, opponent string) {
	if d == debate.DebaterA {
		return axis.StanceA, axis.StanceB
	}
	return axis.StanceB, axis.StanceA
}
