// Package debate defines the data model for a BREAK debate: the conflict
// axis, the two debaters' round payloads, and the judge's verdict.
package debate

import "fmt"

// Debater identifies one of the two fixed debate participants.
type Debater string

const (
	// DebaterA argues from the left side of the conflict axis.
	DebaterA Debater = "AI_A"

	// DebaterB argues from the right side of the conflict axis.
	DebaterB Debater = "AI_B"
)

// IsValid checks if the debater identifier is one of the fixed pair.
func (d Debater) IsValid() bool {
	return d == DebaterA || d == DebaterB
}

// Opponent returns the other member of the pair.
func (d Debater) Opponent() Debater {
	if d == DebaterA {
		return DebaterB
	}
	return DebaterA
}

// Confidence is an optional self-assessed confidence signal.
// It is display-only and never scored.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
	// ConfidenceNone means the debater omitted the signal (the default).
	ConfidenceNone Confidence = ""
)

// Axis is the conflict axis selected for a topic, including the concrete
// stances each debater argues from.
type Axis struct {
	ID        int    `json:"axis_id,omitempty"`
	Left      string `json:"axis_left"`
	Right     string `json:"axis_right"`
	StanceA   string `json:"ai_a_stance,omitempty"`
	StanceB   string `json:"ai_b_stance,omitempty"`
	Reasoning string `json:"axis_reasoning"`
}

// Round1Position is one debater's opening argument.
type Round1Position struct {
	Claim             string     `json:"claim"`
	Rationale         []string   `json:"rationale"`
	PreemptiveCounter string     `json:"preemptive_counter"`
	Confidence        Confidence `json:"confidence_level,omitempty"`
}

// Round2Position is one debater's rebuttal and closing statement.
type Round2Position struct {
	Counters       []string   `json:"counters"`
	FinalStatement string     `json:"final_statement"`
	Confidence     Confidence `json:"confidence_level,omitempty"`
}

// Round1Payload carries both debaters' round 1 content. It only exists
// once both calls succeeded; there are no partial rounds.
type Round1Payload struct {
	AxisLeft  string         `json:"axis_left"`
	AxisRight string         `json:"axis_right"`
	A         Round1Position `json:"ai_a"`
	B         Round1Position `json:"ai_b"`
}

// Round2Payload carries both debaters' round 2 content.
type Round2Payload struct {
	AxisLeft  string         `json:"axis_left"`
	AxisRight string         `json:"axis_right"`
	A         Round2Position `json:"ai_a"`
	B         Round2Position `json:"ai_b"`
}

// ScoreSet holds one debater's three sub-scores and their total.
// Each sub-score is bounded to [0,10]; Total is the flat sum (0-30).
type ScoreSet struct {
	Logic     int `json:"logic"`
	Attack    int `json:"attack"`
	Construct int `json:"construct"`
	Total     int `json:"total"`
}

// Scores pairs both debaters' score sets.
type Scores struct {
	A ScoreSet `json:"ai_a"`
	B ScoreSet `json:"ai_b"`
}

// Category labels for sub-scores and break shots.
const (
	CategoryLogic     = "LOGIC"
	CategoryAttack    = "ATTACK"
	CategoryConstruct = "CONSTRUCT"
)

// BreakShot is the single highest-impact quoted statement of the debate.
type BreakShot struct {
	AI       Debater `json:"ai"`
	Category string  `json:"category"`
	Score    int     `json:"score"`
	Quote    string  `json:"quote"`
}

// Judgment is the judge's complete verdict.
type Judgment struct {
	AxisLeft      string    `json:"axis_left"`
	AxisRight     string    `json:"axis_right"`
	AxisReasoning string    `json:"axis_reasoning,omitempty"`
	Scores        Scores    `json:"scores"`
	Winner        Debater   `json:"winner"`
	BreakShot     BreakShot `json:"break_shot"`
	Reasoning     string    `json:"reasoning"`
	Synthesis     string    `json:"synthesis"`
}

// MinTopicLength is the minimum topic length in runes accepted for a
// debate. Shorter input is rejected before any generation cost is spent.
const MinTopicLength = 5

// ValidateTopic rejects topics too short to frame adversarially.
func ValidateTopic(topic string) error {
	if len([]rune(topic)) < MinTopicLength {
		return fmt.Errorf("topic must be at least %d characters", MinTopicLength)
	}
	return nil
}
