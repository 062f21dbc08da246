package services

import (
	"context"
	"strings"
	"time"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/openai"
	"github.com/yungbote/parla-backend/internal/prompts"
)

// HistoryWindow is how many prior turns are forwarded to the model.
const HistoryWindow = 10

// Turn is one prior message of the running conversation.
type Turn struct {
	Role    string `json:"role" binding:"required,role" validate:"required,role"`
	Content string `json:"content" binding:"max=5000" validate:"max=5000"`
}

type ReplyInput struct {
	Level          string
	FocusAreas     []string
	CorrectionMode string
	Targets        []string
	History        []Turn
	Input          string
}

type FeedbackInput struct {
	Level          string
	WeekID         int
	FocusAreas     []string
	Transcript     []TranscriptLine
	InsightSummary string
}

type TranscriptLine struct {
	Role string `json:"role" binding:"required,role" validate:"required,role"`
	Text string `json:"text" binding:"required,max=5000" validate:"required,max=5000"`
}

type PlanInput struct {
	Level   string
	Errors  []PlanError
	Targets []PlanTarget
}

type PlanError struct {
	Type       string
	Example    string
	Correction string
	Count      int
}

type PlanTarget struct {
	Phrase string
	Status string
}

// Completion is generated text plus whether a fallback string was used.
type Completion struct {
	Text     string
	Fallback bool
}

// CompletionGateway wraps the hosted model with fixed prompts, history
// windowing and fallbacks. Every method is a single call with no retry.
type CompletionGateway interface {
	Reply(ctx context.Context, in ReplyInput) Completion
	Feedback(ctx context.Context, in FeedbackInput) Completion
	// Plan returns raw model text; an empty string means nothing usable.
	Plan(ctx context.Context, in PlanInput) (string, error)
	RealtimeInstructions(in RealtimeInstructionsInput) string
}

type RealtimeInstructionsInput struct {
	Level          string
	CorrectionMode string
	Targets        []string
	RecentErrors   []string
}

type completionGateway struct {
	log     *logger.Logger
	client  openai.Client
	prompts *prompts.Set
	model   string
}

// NewCompletionGateway accepts a nil client; every call then yields the
// error fallback.
func NewCompletionGateway(log *logger.Logger, client openai.Client, set *prompts.Set, model string) CompletionGateway {
	if set == nil {
		set = prompts.Default()
	}
	return &completionGateway{
		log:     log.With("service", "CompletionGateway"),
		client:  client,
		prompts: set,
		model:   strings.TrimSpace(model),
	}
}

func (g *completionGateway) Reply(ctx context.Context, in ReplyInput) Completion {
	system, err := g.prompts.Render(prompts.TutorSystem, struct {
		Level          string
		FocusAreas     []string
		Targets        []string
		CorrectionMode string
	}{
		Level:          levelOrDefault(in.Level),
		FocusAreas:     in.FocusAreas,
		Targets:        in.Targets,
		CorrectionMode: in.CorrectionMode,
	})
	if err != nil {
		g.log.Error("Render tutor prompt failed", "error", err)
		return Completion{Text: g.prompts.Fallback(prompts.FallbackReplyError), Fallback: true}
	}

	msgs := []openai.Message{{Role: "system", Content: system}}
	for _, t := range WindowTurns(in.History, HistoryWindow) {
		msgs = append(msgs, openai.Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, openai.Message{Role: "user", Content: in.Input})

	return g.complete(ctx, msgs, prompts.ParamsReply, prompts.FallbackReplyEmpty, prompts.FallbackReplyError)
}

func (g *completionGateway) Feedback(ctx context.Context, in FeedbackInput) Completion {
	data := struct {
		Level          string
		WeekID         int
		FocusAreas     []string
		Transcript     []TranscriptLine
		InsightSummary string
	}{levelOrDefault(in.Level), in.WeekID, in.FocusAreas, in.Transcript, in.InsightSummary}

	system, err := g.prompts.Render(prompts.FeedbackSystem, data)
	if err == nil {
		var user string
		user, err = g.prompts.Render(prompts.FeedbackUser, data)
		if err == nil {
			msgs := []openai.Message{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			}
			return g.complete(ctx, msgs, prompts.ParamsFeedback, prompts.FallbackFeedbackEmpty, prompts.FallbackFeedbackError)
		}
	}
	g.log.Error("Render feedback prompt failed", "error", err)
	return Completion{Text: g.prompts.Fallback(prompts.FallbackFeedbackError), Fallback: true}
}

func (g *completionGateway) Plan(ctx context.Context, in PlanInput) (string, error) {
	data := struct {
		Level   string
		Errors  []PlanError
		Targets []PlanTarget
	}{levelOrDefault(in.Level), in.Errors, in.Targets}
	system, err := g.prompts.Render(prompts.PlannerSystem, data)
	if err != nil {
		return "", err
	}
	user, err := g.prompts.Render(prompts.PlannerUser, data)
	if err != nil {
		return "", err
	}
	if g.client == nil {
		observability.Current().ObserveLLM(g.model, prompts.ParamsPlanner, "unavailable", 0)
		return "", nil
	}
	p := g.prompts.Params(prompts.ParamsPlanner)
	start := time.Now()
	out, err := g.client.Chat(ctx, openai.ChatRequest{
		Model:       g.model,
		Messages:    []openai.Message{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		observability.Current().ObserveLLM(g.model, prompts.ParamsPlanner, "error", time.Since(start))
		return "", err
	}
	out = openai.SanitizeJSONText(out)
	observability.Current().ObserveLLM(g.model, prompts.ParamsPlanner, outcomeOf(out), time.Since(start))
	return out, nil
}

func (g *completionGateway) RealtimeInstructions(in RealtimeInstructionsInput) string {
	out, err := g.prompts.Render(prompts.RealtimeInstructions, struct {
		Level          string
		CorrectionMode string
		Targets        []string
		RecentErrors   []string
	}{levelOrDefault(in.Level), in.CorrectionMode, in.Targets, in.RecentErrors})
	if err != nil {
		g.log.Error("Render realtime instructions failed", "error", err)
		return ""
	}
	return out
}

func (g *completionGateway) complete(ctx context.Context, msgs []openai.Message, params, emptyKey, errorKey string) Completion {
	metrics := observability.Current()
	if g.client == nil {
		metrics.ObserveLLM(g.model, params, "unavailable", 0)
		return Completion{Text: g.prompts.Fallback(errorKey), Fallback: true}
	}
	p := g.prompts.Params(params)
	start := time.Now()
	out, err := g.client.Chat(ctx, openai.ChatRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		metrics.ObserveLLM(g.model, params, "error", time.Since(start))
		g.log.Warn("Completion failed; using fallback", append(ctxutil.LogFields(ctx), "params", params, "error", err.Error())...)
		return Completion{Text: g.prompts.Fallback(errorKey), Fallback: true}
	}
	out = strings.TrimSpace(out)
	metrics.ObserveLLM(g.model, params, outcomeOf(out), time.Since(start))
	if out == "" {
		return Completion{Text: g.prompts.Fallback(emptyKey), Fallback: true}
	}
	return Completion{Text: out}
}

func outcomeOf(text string) string {
	if strings.TrimSpace(text) == "" {
		return "empty"
	}
	return "ok"
}

// WindowTurns keeps the last n non-empty turns in order.
func WindowTurns(turns []Turn, n int) []Turn {
	kept := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, t)
	}
	if n >= 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}

func levelOrDefault(level string) string {
	if strings.TrimSpace(level) == "" {
		return types.DefaultCEFRLevel
	}
	return level
}
