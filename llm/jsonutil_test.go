package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"claim": "value"}`,
			want:  `{"claim": "value"}`,
		},
		{
			name:  "markdown fenced",
			input: "Here is the result:\n```json\n{\"claim\": \"value\"}\n```\nDone.",
			want:  `{"claim": "value"}`,
		},
		{
			name:  "fence without language tag",
			input: "```\n{\"winner\": \"AI_A\"}\n```",
			want:  `{"winner": "AI_A"}`,
		},
		{
			name:  "object embedded in prose",
			input: `The answer is {"axis_id": 5} as requested.`,
			want:  `{"axis_id": 5}`,
		},
		{
			name:  "trailing comma removed",
			input: `{"scores": [1, 2, 3,],}`,
			want:  `{"scores": [1, 2, 3]}`,
		},
		{
			name:  "no JSON at all",
			input: "こんにちは",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractJSONSurvivesUnmarshal(t *testing.T) {
	input := "```json\n{\n  \"winner\": \"AI_B\", // the stronger rebuttal\n  \"total\": 25,\n}\n```"

	var out struct {
		Winner string `json:"winner"`
		Total  int    `json:"total"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(input)), &out); err != nil {
		t.Fatalf("unmarshal extracted JSON: %v", err)
	}
	if out.Winner != "AI_B" || out.Total != 25 {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestStripLineComment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "comment after value",
			input: `"claim": "x", // short`,
			want:  `"claim": "x",`,
		},
		{
			name:  "url inside string preserved",
			input: `"url": "http://example.com"`,
			want:  `"url": "http://example.com"`,
		},
		{
			name:  "url then comment",
			input: `"url": "http://example.com" // comment`,
			want:  `"url": "http://example.com"`,
		},
		{
			name:  "escaped quote in string",
			input: `"quote": "he said \"no\" // not a comment"`,
			want:  `"quote": "he said \"no\" // not a comment"`,
		},
		{
			name:  "no comment",
			input: `"logic": 7,`,
			want:  `"logic": 7,`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripLineComment(tt.input); got != tt.want {
				t.Errorf("stripLineComment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
