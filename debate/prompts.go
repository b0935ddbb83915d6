package debate

import (
	"fmt"
	"strings"
)

// Prompt builders for the four generation phases. The templates follow the
// original BREAK product copy: the debate runs in Japanese and every phase
// demands a strict JSON response so the engine can parse it.

// BuildAxisPrompt asks the judge to classify the topic into one of the
// catalog axes and derive a concrete opposing stance for each debater.
// axis_id 0 marks a topic unsuitable for two-sided debate.
func BuildAxisPrompt(topic string) string {
	return fmt.Sprintf(`以下のトピックについて、最も適切な対立軸を%d種類から1つ選んでください。

【トピック】
%s

【対立軸の選択肢（%d種類）】
%s

【出力形式】
必ず以下のJSON形式で出力してください：
{
  "axis_id": 0-%dの整数,
  "axis_left": "選択した軸の左側",
  "axis_right": "選択した軸の右側",
  "ai_a_stance": "トピックに対するAI_Aの具体的立場（axis_leftの視点から50-80字で明確に記述）",
  "ai_b_stance": "トピックに対するAI_Bの具体的立場（axis_rightの視点から50-80字で明確に記述）",
  "reasoning": "この軸を選んだ理由を50-80字で説明"
}

【重要】
- **トピックが議論に適さない場合（挨拶、単語、質問、意味不明など）は、axis_id: 0を返してください**
- axis_id: 0の場合、他のフィールドは空文字列""でOKです

【ai_a_stance と ai_b_stance の生成ルール】
- **トピックに対する具体的な立場を明確に記述すること**（抽象的な軸の説明ではない）
- **2つの立場は必ず相反する内容にすること**（両方とも賛成や両方とも反対は禁止）

【注意】
- トピックの本質的な対立構造を最もよく表現する軸を選んでください
- **議論可能なトピックかどうかを最初に判断してください**
`, len(AxisPatterns), topic, len(AxisPatterns), FormatAxesForPrompt(), len(AxisPatterns))
}

// BuildRound1Prompt asks a debater for its opening argument.
func BuildRound1Prompt(topic, stance, opponentStance string) string {
	return fmt.Sprintf(`以下のトピックについて、あなたの立場から議論してください。

【トピック】
%s

【あなたの立場】
%s

【対立する立場】
%s

【Round 1の目的】
- あなたの立場からの初期主張を明確に提示する
- 論拠を3つ挙げ、主張を論理的に裏付ける
- 相手の反論を先読みし、先制的に反論する

【出力形式】
必ず以下のJSON形式で出力してください：
{
  "claim": "あなたの立場からの主張を50-80字で明確に述べる",
  "rationale": [
    "論拠1: 主張を支える根拠を80-120字で説明",
    "論拠2: 主張を支える根拠を80-120字で説明",
    "論拠3: 主張を支える根拠を80-120字で説明"
  ],
  "preemptive_counter": "相手からの予想される反論に対する先制的反論を80-120字で述べる",
  "confidence_level": "high" または "low" (任意)
}

【注意】
- 対立する立場を明確に意識し、あなたの立場を強く主張してください
- 重要なフレーズは<critical>タグで囲んでください
- **confidence_levelは基本的に省略してください。"high"は絶対的な勝算がある場合のみ、"low"は勝算が極めて低い場合のみです**
`, topic, stance, opponentStance)
}

// BuildRound2Prompt asks a debater to rebut the opponent's round 1 argument
// and deliver a final statement.
func BuildRound2Prompt(topic, stance, opponentStance string, opponentRound1 Round1Position) string {
	var rationale strings.Builder
	for _, r := range opponentRound1.Rationale {
		fmt.Fprintf(&rationale, "- %s\n", r)
	}

	return fmt.Sprintf(`以下のトピックについて、相手の主張に反論してください。

【トピック】
%s

【あなたの立場】
%s

【相手の立場】
%s

【相手のRound 1主張】
主張: %s

論拠:
%s
先制的反論:
%s

【Round 2の目的】
- 相手の主張の弱点を3つ指摘し、反論する
- あなたの立場からの最終主張を提示する

【出力形式】
必ず以下のJSON形式で出力してください：
{
  "counters": [
    "反論1: 相手の主張の弱点を指摘し、60-100字で反論",
    "反論2: 相手の主張の弱点を指摘し、60-100字で反論",
    "反論3: 相手の主張の弱点を指摘し、60-100字で反論"
  ],
  "final_statement": "あなたの立場からの最終主張を100-150字で述べる（反論を踏まえた総括）",
  "confidence_level": "high" または "low" (任意)
}

【注意】
- 相手の具体的な論拠に対して鋭く反論してください
- 決定的な論点は<critical>タグで囲んでください
- **confidence_levelは基本的に省略してください**
`, topic, stance, opponentStance, opponentRound1.Claim, rationale.String(), opponentRound1.PreemptiveCounter)
}

// BuildJudgmentPrompt asks the judge for scores, scored break-shot
// candidates, reasoning and a synthesis over the full debate.
func BuildJudgmentPrompt(topic string, axis Axis, round1 Round1Payload, round2 Round2Payload) string {
	r1A := formatRound1(round1.A)
	r1B := formatRound1(round1.B)
	r2A := formatRound2(round2.A)
	r2B := formatRound2(round2.B)

	return fmt.Sprintf(`以下の議論を評価し、勝者を判定してください。

【議題】
%s

【対立軸】
%s vs %s

【AI_A (%s)の主張】
Round 1:
%s

Round 2:
%s

【AI_B (%s)の主張】
Round 1:
%s

Round 2:
%s

【評価基準】
1. 論理的整合性: 主張と論拠の一貫性、論理の飛躍がないか
2. 攻撃の鋭さ: 相手の弱点を突く反論の鋭さ
3. 建設性: 実現可能性、建設的な提案

【出力形式】
必ず以下のJSON形式で出力してください：
{
  "winner": "AI_A" または "AI_B",
  "scores": {
    "ai_a": {"logic": 0-10の整数, "attack": 0-10の整数, "construct": 0-10の整数, "total": 0-30の整数},
    "ai_b": {"logic": 0-10の整数, "attack": 0-10の整数, "construct": 0-10の整数, "total": 0-30の整数}
  },
  "break_candidates": [
    {"ai": "AI_A"または"AI_B", "round": 1または2, "category": "LOGIC"|"ATTACK"|"CONSTRUCT", "score": 0-10の整数, "quote": "決定的発言を50字以内で引用"}
  ],
  "break_shot": {
    "ai": "AI_A" または "AI_B",
    "category": "LOGIC" | "ATTACK" | "CONSTRUCT",
    "score": 0-10の整数,
    "quote": "決定的発言を50字以内で引用"
  },
  "reasoning": "判定理由を100字以内で説明",
  "synthesis": "両論を踏まえた建設的な結論を100字程度で記述"
}

【注意】
- scoresのtotalは各カテゴリの合計（logic + attack + construct）
- break_candidatesには両AI・両ラウンドから最も印象的な発言を1つずつ（最大4件）挙げ、各発言に該当カテゴリのスコアを付けてください
- break_shotはbreak_candidatesの中で最もスコアの高い発言を選んでください
- synthesisは対立を統合した「第三の道」を示してください
`, topic, axis.Left, axis.Right, axis.Left, r1A, r2A, axis.Right, r1B, r2B)
}

func formatRound1(p Round1Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "主張: %s\n論拠:\n", p.Claim)
	for _, r := range p.Rationale {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	fmt.Fprintf(&b, "先制的反論: %s", p.PreemptiveCounter)
	return b.String()
}

func formatRound2(p Round2Position) string {
	var b strings.Builder
	b.WriteString("反論:\n")
	for _, c := range p.Counters {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	fmt.Fprintf(&b, "最終主張: %s", p.FinalStatement)
	return b.String()
}
