package client

import (
	"fmt"

	"github.com/yo2158/break/debate"
)

const rule = "════════════════════════════════════════"

func (v *Viewer) renderWaiting(topic string) {
	fmt.Fprintf(v.out, "%s\nBREAK: %s\n%s\n対立軸を分析中...\n\n", rule, topic, rule)
}

func (v *Viewer) renderAxis(axis debate.Axis) {
	fmt.Fprintf(v.out, "【対立軸】 %s vs %s\n", axis.Left, axis.Right)
	if axis.Reasoning != "" {
		fmt.Fprintf(v.out, "  %s\n", axis.Reasoning)
	}
	if axis.StanceA != "" {
		fmt.Fprintf(v.out, "  AI_A: %s\n", axis.StanceA)
	}
	if axis.StanceB != "" {
		fmt.Fprintf(v.out, "  AI_B: %s\n", axis.StanceB)
	}
	fmt.Fprintln(v.out)
}

func (v *Viewer) renderRound1(p debate.Round1Payload) {
	fmt.Fprintf(v.out, "─── ROUND 1 ───\n")
	v.renderPosition1(debate.DebaterA, p.AxisLeft, p.A)
	v.renderPosition1(debate.DebaterB, p.AxisRight, p.B)
}

func (v *Viewer) renderPosition1(who debate.Debater, side string, p debate.Round1Position) {
	fmt.Fprintf(v.out, "\n[%s / %s]%s\n", who, side, confidenceTag(p.Confidence))
	fmt.Fprintf(v.out, "主張: %s\n", p.Claim)
	for _, r := range p.Rationale {
		fmt.Fprintf(v.out, "  ・%s\n", r)
	}
	if p.PreemptiveCounter != "" {
		fmt.Fprintf(v.out, "先制反論: %s\n", p.PreemptiveCounter)
	}
}

func (v *Viewer) renderRound2(p debate.Round2Payload) {
	fmt.Fprintf(v.out, "\n─── ROUND 2 ───\n")
	v.renderPosition2(debate.DebaterA, p.AxisLeft, p.A)
	v.renderPosition2(debate.DebaterB, p.AxisRight, p.B)
}

func (v *Viewer) renderPosition2(who debate.Debater, side string, p debate.Round2Position) {
	fmt.Fprintf(v.out, "\n[%s / %s]%s\n", who, side, confidenceTag(p.Confidence))
	for _, c := range p.Counters {
		fmt.Fprintf(v.out, "反論: %s\n", c)
	}
	fmt.Fprintf(v.out, "最終主張: %s\n", p.FinalStatement)
}

func (v *Viewer) renderJudgment(j debate.Judgment) {
	fmt.Fprintf(v.out, "\n─── 判定 ───\n")
	fmt.Fprintf(v.out, "%-6s %s\n%-6s %s\n", "AI_A:", scoreLine(j.Scores.A), "AI_B:", scoreLine(j.Scores.B))
	fmt.Fprintf(v.out, "\n勝者: %s\n", j.Winner)
	if j.BreakShot.Quote != "" {
		fmt.Fprintf(v.out, "BREAK SHOT [%s %s %d点]\n  「%s」\n",
			j.BreakShot.AI, j.BreakShot.Category, j.BreakShot.Score, j.BreakShot.Quote)
	}
	if j.Reasoning != "" {
		fmt.Fprintf(v.out, "講評: %s\n", j.Reasoning)
	}
	if j.Synthesis != "" {
		fmt.Fprintf(v.out, "総括: %s\n", j.Synthesis)
	}
}

func (v *Viewer) renderComplete() {
	fmt.Fprintf(v.out, "\n%s\n", rule)
}

func scoreLine(s debate.ScoreSet) string {
	return fmt.Sprintf("論理 %2d / 攻撃 %2d / 構築 %2d = %2d", s.Logic, s.Attack, s.Construct, s.Total)
}

func confidenceTag(c debate.Confidence) string {
	switch c {
	case debate.ConfidenceHigh:
		return " (自信あり)"
	case debate.ConfidenceLow:
		return " (自信なし)"
	default:
		return ""
	}
}
