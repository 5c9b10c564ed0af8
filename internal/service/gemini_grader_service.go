package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/config"
	"github.com/smartexam/server/internal/model"
	"google.golang.org/api/option"
)

// AIGrader scores one free-text answer against a question's sample answer
// and keyword list. Any error from it means the caller must fall back to the
// deterministic default result; it never aborts a grading batch.
type AIGrader interface {
	GradeAnswer(ctx context.Context, question *model.Question, answerText string) (*model.AIFeedback, float64, error)
}

type geminiGrader struct {
	client *genai.GenerativeModel
	cfg    *config.Config
}

// NewGeminiGrader builds the long-lived Gemini client injected into the
// grading pipeline. With no API key the grader stays non-functional and
// every call errors, which the pipeline absorbs via the fallback result.
func NewGeminiGrader(cfg *config.Config) (AIGrader, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI grading will fall back to default results.")
		return &geminiGrader{cfg: cfg, client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiGrader{client: client.GenerativeModel(cfg.Grading.Model), cfg: cfg}, nil
}

func (g *geminiGrader) GradeAnswer(ctx context.Context, question *model.Question, answerText string) (*model.AIFeedback, float64, error) {
	if g.client == nil {
		return nil, 0, fmt.Errorf("gemini client not initialized")
	}

	prompt := buildGradingPrompt(question, answerText)
	resp, err := g.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Uint("question_id", question.ID).Msg("Gemini API error during grading")
		return nil, 0, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, 0, fmt.Errorf("gemini returned no content")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}

	return parseGradingResponse(raw.String())
}

func buildGradingPrompt(question *model.Question, answerText string) string {
	var b strings.Builder
	b.WriteString("You are a strict university examiner grading a student's free-text exam answer.\n\n")
	b.WriteString("Question:\n")
	b.WriteString(question.Text)
	b.WriteString("\n\n")
	if question.SampleAnswer != "" {
		b.WriteString("Reference answer:\n")
		b.WriteString(question.SampleAnswer)
		b.WriteString("\n\n")
	}
	if question.Keywords != "" {
		b.WriteString("Expected keywords: ")
		b.WriteString(question.Keywords)
		b.WriteString("\n\n")
	}
	b.WriteString("Student's answer:\n---\n")
	b.WriteString(answerText)
	b.WriteString("\n---\n\n")
	b.WriteString("Score the answer on five criteria, each an integer from 0 to 3: ")
	b.WriteString("relevance, completeness, clarity, keyword_coverage, logical_coherence. ")
	fmt.Fprintf(&b, "Give an overall score from 0 to %.0f reflecting all criteria.\n\n", model.MaxAnswerScore)
	b.WriteString("Respond with ONLY this JSON object, no markdown, no extra text:\n")
	b.WriteString(`{"score": <number>, "feedback": {"relevance": <0-3>, "completeness": <0-3>, "clarity": <0-3>, "keyword_coverage": <0-3>, "logical_coherence": <0-3>, "comment": "<short overall comment>"}}`)
	return b.String()
}

// gradingPayload mirrors the JSON contract with the model. Pointers make a
// missing score or feedback object detectable.
type gradingPayload struct {
	Score    *float64          `json:"score"`
	Feedback *model.AIFeedback `json:"feedback"`
}

// parseGradingResponse validates the raw model output. Anything short of a
// well-formed payload with an in-range score is an error so the pipeline
// applies the deterministic fallback.
func parseGradingResponse(raw string) (*model.AIFeedback, float64, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, 0, fmt.Errorf("empty grading response")
	}

	var payload gradingPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, 0, fmt.Errorf("malformed grading response: %w", err)
	}
	if payload.Feedback == nil {
		return nil, 0, fmt.Errorf("grading response missing feedback object")
	}
	if payload.Score == nil {
		return nil, 0, fmt.Errorf("grading response missing score")
	}
	score := *payload.Score
	if score < 0 || score > model.MaxAnswerScore {
		return nil, 0, fmt.Errorf("grading score %.2f outside [0,%.0f]", score, model.MaxAnswerScore)
	}

	fb := *payload.Feedback
	fb.Relevance = clampCriterion(fb.Relevance)
	fb.Completeness = clampCriterion(fb.Completeness)
	fb.Clarity = clampCriterion(fb.Clarity)
	fb.KeywordCoverage = clampCriterion(fb.KeywordCoverage)
	fb.LogicalCoherence = clampCriterion(fb.LogicalCoherence)

	return &fb, score, nil
}

// stripCodeFence removes a markdown fence the model sometimes wraps the JSON
// in despite the prompt.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clampCriterion(v int) int {
	if v < 0 {
		return 0
	}
	if v > 3 {
		return 3
	}
	return v
}
