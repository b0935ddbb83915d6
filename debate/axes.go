package debate

import (
	"fmt"
	"strings"
)

// AxisPattern is one of the predefined conflict axes the judge selects from.
type AxisPattern struct {
	ID          int    `json:"id"`
	Category    string `json:"category"`
	Left        string `json:"left"`
	Right       string `json:"right"`
	Description string `json:"description"`
}

// AxisPatterns is the catalog of 21 conflict axes in 7 categories.
// The judge picks the axis that best exposes the topic's core tension;
// ID 0 is reserved for topics unsuitable for two-sided debate.
var AxisPatterns = []AxisPattern{
	// 倫理・道徳
	{ID: 1, Category: "倫理・道徳", Left: "原則主義", Right: "結果主義", Description: "普遍的原則を重視するか、実際の結果を重視するか"},
	{ID: 2, Category: "倫理・道徳", Left: "個人の自由", Right: "社会規範", Description: "個人の自由を優先するか、社会の規範を優先するか"},
	{ID: 3, Category: "倫理・道徳", Left: "権利重視", Right: "義務重視", Description: "個人の権利を優先するか、社会への義務を優先するか"},

	// 技術・イノベーション
	{ID: 4, Category: "技術・イノベーション", Left: "技術進歩主義", Right: "技術慎重主義", Description: "技術の急速な進歩を推進するか、慎重に進めるか"},
	{ID: 5, Category: "技術・イノベーション", Left: "効率最適化", Right: "人間中心主義", Description: "効率を追求するか、人間の幸福を優先するか"},
	{ID: 6, Category: "技術・イノベーション", Left: "データ駆動", Right: "直感重視", Description: "データに基づく判断を重視するか、直感を重視するか"},

	// 健康・医療
	{ID: 7, Category: "健康・医療", Left: "健康最優先", Right: "QOL優先", Description: "身体的健康を最優先するか、生活の質（QOL）を優先するか"},
	{ID: 8, Category: "健康・医療", Left: "科学的根拠", Right: "個人の体感", Description: "科学的エビデンスを重視するか、個人の体感を重視するか"},
	{ID: 9, Category: "健康・医療", Left: "予防原則", Right: "自己責任原則", Description: "予防的措置を重視するか、個人の自己責任を重視するか"},

	// 社会・公共
	{ID: 10, Category: "社会・公共", Left: "平等主義", Right: "能力主義", Description: "全員に平等な機会を与えるか、能力に応じた配分をするか"},
	{ID: 11, Category: "社会・公共", Left: "個人の権利", Right: "公共の安全", Description: "個人の権利を優先するか、公共の安全を優先するか"},
	{ID: 12, Category: "社会・公共", Left: "現実主義", Right: "理想主義", Description: "現実的な解決策を優先するか、理想的なビジョンを追求するか"},

	// 人間関係
	{ID: 13, Category: "人間関係", Left: "希望尊重", Right: "現実認識", Description: "相手の希望を尊重するか、現実的な問題を認識するか"},
	{ID: 14, Category: "人間関係", Left: "自由恋愛", Right: "社会規範", Description: "自由な恋愛を尊重するか、社会規範に従うか"},
	{ID: 15, Category: "人間関係", Left: "信頼基盤", Right: "疑念対応", Description: "相手への信頼を基盤とするか、疑念に対応するか"},

	// 経済・キャリア
	{ID: 16, Category: "経済・キャリア", Left: "キャリア投資", Right: "リスク回避", Description: "キャリアへの投資を優先するか、リスクを回避するか"},
	{ID: 17, Category: "経済・キャリア", Left: "経済的自由", Right: "社会貢献", Description: "個人の経済的自由を優先するか、社会への貢献を優先するか"},
	{ID: 18, Category: "経済・キャリア", Left: "短期最適", Right: "長期最適", Description: "短期的な利益を優先するか、長期的な持続可能性を優先するか"},

	// 政策・制度
	{ID: 19, Category: "政策・制度", Left: "規制強化", Right: "市場自由", Description: "規制を強化するか、市場の自由に任せるか"},
	{ID: 20, Category: "政策・制度", Left: "保護主義", Right: "自己責任", Description: "保護政策を推進するか、自己責任を重視するか"},
	{ID: 21, Category: "政策・制度", Left: "事前規制", Right: "事後対処", Description: "事前に規制するか、問題発生後に対処するか"},
}

// AxisByID returns the axis pattern with the given ID, or nil.
func AxisByID(id int) *AxisPattern {
	for i := range AxisPatterns {
		if AxisPatterns[i].ID == id {
			return &AxisPatterns[i]
		}
	}
	return nil
}

// AxesByCategory returns all axis patterns in a category.
func AxesByCategory(category string) []AxisPattern {
	var out []AxisPattern
	for _, a := range AxisPatterns {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// FormatAxesForPrompt renders the catalog as a numbered list for the axis
// selection prompt.
func FormatAxesForPrompt() string {
	var b strings.Builder
	for i, a := range AxisPatterns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s vs %s (%s)", a.ID, a.Left, a.Right, a.Description)
	}
	return b.String()
}

// DefaultAxis is used when the judge's axis response cannot be parsed.
// It mirrors the most general-purpose axis in the catalog.
func DefaultAxis() Axis {
	return Axis{
		ID:        5,
		Left:      "効率最適化",
		Right:     "人間中心主義",
		StanceA:   "効率化を最優先し、目標達成を重視する立場",
		StanceB:   "人間の幸福と尊厳を最優先し、プロセスを重視する立場",
		Reasoning: "応答の解析に失敗したため、汎用の対立軸を使用",
	}
}
