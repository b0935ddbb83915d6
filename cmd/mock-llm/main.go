// Package main implements a mock LLM server for offline debate runs.
// It serves OpenAI-compatible /v1/chat/completions responses with canned
// debate JSON, routing by the phase markers present in the prompt. Point
// all three roles at it (provider "openai", any model name) and a full
// debate runs without network access or API keys.
//
// Usage:
//
//	mock-llm -port 11434 [-fixtures /path/to/fixtures]
//
// With -fixtures, files named axis.json, round1.json, round2.json and
// judgment.json override the built-in responses for those phases.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Phase routing ---

// Debate phases, in prompt-marker detection order. Judgment is checked
// first because its prompt embeds both rounds' content.
var phases = []string{"judgment", "axis", "round2", "round1"}

// phaseMarkers maps a phase to a substring that only its prompt contains.
var phaseMarkers = map[string]string{
	"judgment": "break_candidates",
	"axis":     "axis_id",
	"round2":   "final_statement",
	"round1":   "preemptive_counter",
}

// detectPhase classifies a prompt by which phase's response schema it
// asks for. Empty string means no marker matched.
func detectPhase(prompt string) string {
	for _, phase := range phases {
		if strings.Contains(prompt, phaseMarkers[phase]) {
			return phase
		}
	}
	return ""
}

// --- Canned responses ---

var builtinResponses = map[string]string{
	"axis": `{
  "axis_id": 3,
  "axis_left": "効率重視",
  "axis_right": "公平重視",
  "ai_a_stance": "効率を最優先すべきという立場",
  "ai_b_stance": "公平を最優先すべきという立場",
  "reasoning": "このテーマの本質は限られた資源の配分基準にある"
}`,
	"round1": `{
  "claim": "効率の最大化こそが全体の利益を最大化する",
  "rationale": ["生産性の総量が増えれば再分配の原資も増える", "遅い意思決定は機会損失を生む"],
  "preemptive_counter": "格差の拡大は事後的な再分配で補正できる",
  "confidence_level": "high"
}`,
	"round2": `{
  "counters": ["相手の主張は理想状態を前提にしており現実の摩擦を無視している"],
  "final_statement": "原則を先に固定しなければ例外が原則を飲み込む"
}`,
	"judgment": `{
  "scores": {
    "ai_a": {"logic": 8, "attack": 7, "construct": 8},
    "ai_b": {"logic": 8, "attack": 8, "construct": 7}
  },
  "winner": "AI_B",
  "break_candidates": [
    {"ai": "AI_B", "category": "ATTACK", "score": 9, "round": 2,
     "quote": "相手の主張は理想状態を前提にしており現実の摩擦を無視している"},
    {"ai": "AI_A", "category": "LOGIC", "score": 8, "round": 1,
     "quote": "生産性の総量が増えれば再分配の原資も増える"}
  ],
  "reasoning": "攻撃の鋭さでAI_Bが僅差で上回った",
  "synthesis": "効率と公平は配分設計の問題として統合しうる"
}`,
}

// --- Server ---

type server struct {
	responses map[string]string
	calls     atomic.Int64

	mu           sync.Mutex
	callsByPhase map[string]int64
}

func newServer(responses map[string]string) *server {
	return &server{
		responses:    responses,
		callsByPhase: make(map[string]int64),
	}
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory with per-phase response overrides")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	responses, err := loadResponses(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}

	s := newServer(responses)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock LLM server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadResponses starts from the built-in debate and overlays any
// per-phase fixture files found in dir.
func loadResponses(dir string) (map[string]string, error) {
	responses := make(map[string]string, len(builtinResponses))
	for phase, content := range builtinResponses {
		responses[phase] = content
	}
	if dir == "" {
		return responses, nil
	}
	for phase := range builtinResponses {
		path := filepath.Join(dir, phase+".json")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded fixture override: %s", path)
		responses[phase] = string(data)
	}
	return responses, nil
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)

	var prompt string
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}
	phase := detectPhase(prompt)
	if phase == "" {
		log.Printf("[call %d] WARNING: unrecognized prompt, no phase marker found", callNum)
		http.Error(w, "prompt matches no debate phase", http.StatusNotFound)
		return
	}

	s.mu.Lock()
	s.callsByPhase[phase]++
	s.mu.Unlock()

	content := s.responses[phase]
	log.Printf("[call %d] model=%s phase=%s bytes=%d", callNum, req.Model, phase, len(content))

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(prompt) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(prompt) + len(content)) / 4,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	byPhase := make(map[string]int64, len(s.callsByPhase))
	for phase, n := range s.callsByPhase {
		byPhase[phase] = n
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_phase": byPhase,
	})
}
