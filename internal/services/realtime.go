package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/validate"
)

const realtimeErrorLimit = 5

// Tool names exposed to the realtime agent.
const (
	ToolMarkTargetUsed = "mark_target_used"
	ToolAddCorrection  = "add_correction"
	ToolEndSession     = "end_session"
	ToolNavigate       = "navigate"
)

type RealtimeConfig struct {
	Model string
	Voice string
}

// ToolSpec is a function definition in the shape realtime clients expect.
type ToolSpec struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type RealtimeSession struct {
	Model         string     `json:"model"`
	Voice         string     `json:"voice"`
	Instructions  string     `json:"instructions"`
	Functions     []ToolSpec `json:"functions"`
	ActiveTargets []string   `json:"activeTargets"`
}

type RealtimeReplyInput struct {
	Input      string
	FocusAreas []string
	Level      string
	Messages   []Turn
}

type ToolCall struct {
	SessionID *uuid.UUID
	Name      string
	Arguments json.RawMessage
}

type ToolResult struct {
	OK     bool `json:"ok"`
	Result any  `json:"result"`
}

type RealtimeService interface {
	SessionConfig(ctx context.Context) (*RealtimeSession, error)
	Reply(ctx context.Context, in RealtimeReplyInput) (Completion, error)
	ExecuteTool(ctx context.Context, call ToolCall) (*ToolResult, error)
}

type realtimeService struct {
	log        *logger.Logger
	cfg        RealtimeConfig
	userRepo   repos.UserRepo
	targetRepo repos.TargetRepo
	errorRepo  repos.UserErrorRepo
	targets    TargetService
	errors     UserErrorService
	sessions   SessionService
	gateway    CompletionGateway
}

func NewRealtimeService(
	log *logger.Logger,
	cfg RealtimeConfig,
	userRepo repos.UserRepo,
	targetRepo repos.TargetRepo,
	errorRepo repos.UserErrorRepo,
	targetSvc TargetService,
	errorSvc UserErrorService,
	sessionSvc SessionService,
	gateway CompletionGateway,
) RealtimeService {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-realtime-preview"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	return &realtimeService{
		log:        log.With("service", "RealtimeService"),
		cfg:        cfg,
		userRepo:   userRepo,
		targetRepo: targetRepo,
		errorRepo:  errorRepo,
		targets:    targetSvc,
		errors:     errorSvc,
		sessions:   sessionSvc,
		gateway:    gateway,
	}
}

func (rs *realtimeService) SessionConfig(ctx context.Context) (*RealtimeSession, error) {
	u, err := currentUser(ctx, rs.userRepo)
	if err != nil {
		return nil, err
	}

	var (
		active    []*types.Target
		topErrors []*types.UserError
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := rs.targetRepo.ListActive(dbctx.Of(gctx), u.ID, ActiveTargetLimit)
		active = rows
		return err
	})
	g.Go(func() error {
		rows, err := rs.errorRepo.ListTop(dbctx.Of(gctx), u.ID, realtimeErrorLimit)
		topErrors = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Internal("failed to load session context", err)
	}

	phrases := make([]string, 0, len(active))
	for _, t := range active {
		phrases = append(phrases, t.Phrase)
	}
	recent := make([]string, 0, len(topErrors))
	for _, e := range topErrors {
		recent = append(recent, e.Example+" -> "+e.Correction)
	}

	return &RealtimeSession{
		Model: rs.cfg.Model,
		Voice: rs.cfg.Voice,
		Instructions: rs.gateway.RealtimeInstructions(RealtimeInstructionsInput{
			Level:          u.CEFRLevel,
			CorrectionMode: u.CorrectionMode,
			Targets:        phrases,
			RecentErrors:   recent,
		}),
		Functions:     RealtimeTools(),
		ActiveTargets: phrases,
	}, nil
}

// Reply falls back to the caller's stored level when none is supplied.
func (rs *realtimeService) Reply(ctx context.Context, in RealtimeReplyInput) (Completion, error) {
	u, err := currentUser(ctx, rs.userRepo)
	if err != nil {
		return Completion{}, err
	}
	active, err := rs.targetRepo.ListActive(dbctx.Of(ctx), u.ID, ActiveTargetLimit)
	if err != nil {
		rs.log.Warn("Active targets unavailable for reply", "user_id", u.ID, "error", err)
	}
	phrases := make([]string, 0, len(active))
	for _, t := range active {
		phrases = append(phrases, t.Phrase)
	}
	level := strings.TrimSpace(in.Level)
	if level == "" {
		level = u.CEFRLevel
	}
	return rs.gateway.Reply(ctx, ReplyInput{
		Level:          level,
		FocusAreas:     in.FocusAreas,
		CorrectionMode: u.CorrectionMode,
		Targets:        phrases,
		History:        in.Messages,
		Input:          in.Input,
	}), nil
}

type markTargetArgs struct {
	Phrase string `json:"phrase" validate:"required,notblank,max=200"`
}

type navigateArgs struct {
	Destination string `json:"destination" validate:"required,destination"`
}

func (rs *realtimeService) ExecuteTool(ctx context.Context, call ToolCall) (*ToolResult, error) {
	switch call.Name {
	case ToolMarkTargetUsed:
		var args markTargetArgs
		if err := decodeToolArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		t, err := rs.targets.MarkUsed(ctx, args.Phrase)
		if err != nil {
			return nil, err
		}
		return &ToolResult{OK: true, Result: t}, nil

	case ToolAddCorrection:
		var args CorrectionInput
		if err := decodeToolArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if u, err := currentUser(ctx, rs.userRepo); err != nil {
			return nil, err
		} else if u.CorrectionMode == types.CorrectionOff {
			return &ToolResult{OK: true, Result: map[string]any{"skipped": "corrections are off"}}, nil
		}
		e, err := rs.errors.Record(ctx, args)
		if err != nil {
			return nil, err
		}
		return &ToolResult{OK: true, Result: e}, nil

	case ToolEndSession:
		if call.SessionID == nil || *call.SessionID == uuid.Nil {
			return nil, apierr.BadRequest("invalid tool call").WithDetails("sessionId: required")
		}
		s, err := rs.sessions.End(ctx, *call.SessionID)
		if err != nil {
			return nil, err
		}
		return &ToolResult{OK: true, Result: s}, nil

	case ToolNavigate:
		var args navigateArgs
		if err := decodeToolArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		return &ToolResult{OK: true, Result: map[string]string{"destination": args.Destination}}, nil
	}
	return nil, apierr.BadRequest("invalid tool call").WithDetails("name: unknown tool " + call.Name)
}

func decodeToolArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	// Some clients send arguments as a JSON-encoded string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = json.RawMessage(s)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apierr.BadRequest("invalid tool arguments").WithDetails(err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return apierr.BadRequest("invalid tool arguments").WithDetails(validate.Describe(err))
	}
	return nil
}

// RealtimeTools lists the functions the realtime agent may call.
func RealtimeTools() []ToolSpec {
	str := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	return []ToolSpec{
		{
			Type:        "function",
			Name:        ToolMarkTargetUsed,
			Description: "Record that the learner used one of the target phrases correctly.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"phrase": str("The target phrase exactly as planned.")},
				"required":   []string{"phrase"},
			},
		},
		{
			Type:        "function",
			Name:        ToolAddCorrection,
			Description: "Record a mistake the learner made and its correction.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":       map[string]any{"type": "string", "enum": []string{types.ErrorGrammar, types.ErrorVocab, types.ErrorPronunciation}},
					"example":    str("What the learner said."),
					"correction": str("The corrected form."),
				},
				"required": []string{"type", "example", "correction"},
			},
		},
		{
			Type:        "function",
			Name:        ToolEndSession,
			Description: "End the practice session when the learner wants to stop.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Type:        "function",
			Name:        ToolNavigate,
			Description: "Move the learner to another screen of the app.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"destination": map[string]any{"type": "string", "enum": validate.Destinations},
				},
				"required": []string{"destination"},
			},
		},
	}
}
