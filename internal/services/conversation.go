package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// correctionScanLimit bounds how many stored corrections are matched against
// a transcript.
const correctionScanLimit = 200

type LiveSessionInput struct {
	WeekID         int
	FocusAreas     []string
	Transcript     []TranscriptLine
	InsightSummary string
}

type LiveSessionResult struct {
	Session  *types.ConversationSession
	Feedback string
}

// AnnotatedTurn is a transcript line with the corrections whose example text
// appears in it.
type AnnotatedTurn struct {
	Role        string             `json:"role"`
	Text        string             `json:"text"`
	Corrections []*types.UserError `json:"corrections"`
}

type ConversationView struct {
	Session      *types.ConversationSession `json:"session"`
	Turns        []AnnotatedTurn            `json:"turns"`
	FeedbackHTML string                     `json:"feedbackHtml"`
}

type ConversationService interface {
	// SaveLive generates feedback for a finished transcript and stores both.
	SaveLive(ctx context.Context, in LiveSessionInput) (*LiveSessionResult, error)
	List(ctx context.Context) ([]*types.ConversationSession, error)
	Get(ctx context.Context, id uuid.UUID) (*ConversationView, error)
}

type conversationService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	convRepo  repos.ConversationSessionRepo
	errorRepo repos.UserErrorRepo
	gateway   CompletionGateway
}

func NewConversationService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	convRepo repos.ConversationSessionRepo,
	errorRepo repos.UserErrorRepo,
	gateway CompletionGateway,
) ConversationService {
	return &conversationService{
		log:       log.With("service", "ConversationService"),
		userRepo:  userRepo,
		convRepo:  convRepo,
		errorRepo: errorRepo,
		gateway:   gateway,
	}
}

func (cs *conversationService) SaveLive(ctx context.Context, in LiveSessionInput) (*LiveSessionResult, error) {
	if len(in.Transcript) == 0 {
		return nil, apierr.BadRequest("invalid request body").WithDetails("transcript: min=1")
	}
	u, err := currentUser(ctx, cs.userRepo)
	if err != nil {
		return nil, err
	}

	fb := cs.gateway.Feedback(ctx, FeedbackInput{
		Level:          u.CEFRLevel,
		WeekID:         in.WeekID,
		FocusAreas:     in.FocusAreas,
		Transcript:     in.Transcript,
		InsightSummary: in.InsightSummary,
	})

	lines := make([]types.Utterance, 0, len(in.Transcript))
	for _, l := range in.Transcript {
		lines = append(lines, types.Utterance{Role: l.Role, Text: strings.TrimSpace(l.Text)})
	}
	transcript, err := json.Marshal(lines)
	if err != nil {
		return nil, apierr.Internal("failed to encode transcript", err)
	}
	focus := in.FocusAreas
	if focus == nil {
		focus = []string{}
	}
	focusJSON, err := json.Marshal(focus)
	if err != nil {
		return nil, apierr.Internal("failed to encode focus areas", err)
	}

	row, err := cs.convRepo.Create(dbctx.Of(ctx), &types.ConversationSession{
		UserID:         u.ID,
		WeekID:         in.WeekID,
		FocusAreas:     datatypes.JSON(focusJSON),
		Transcript:     datatypes.JSON(transcript),
		InsightSummary: strings.TrimSpace(in.InsightSummary),
		Feedback:       fb.Text,
	})
	if err != nil {
		return nil, apierr.Internal("failed to save conversation", err)
	}
	cs.log.Info("Conversation saved",
		"user_id", u.ID,
		"conversation_id", row.ID,
		"turns", len(lines),
		"feedback_fallback", fb.Fallback,
	)
	return &LiveSessionResult{Session: row, Feedback: fb.Text}, nil
}

func (cs *conversationService) List(ctx context.Context) ([]*types.ConversationSession, error) {
	u, err := currentUser(ctx, cs.userRepo)
	if err != nil {
		return nil, err
	}
	rows, err := cs.convRepo.ListRecent(dbctx.Of(ctx), u.ID, RecentSessionLimit)
	if err != nil {
		return nil, apierr.Internal("failed to list conversations", err)
	}
	return rows, nil
}

func (cs *conversationService) Get(ctx context.Context, id uuid.UUID) (*ConversationView, error) {
	u, err := currentUser(ctx, cs.userRepo)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)
	row, err := cs.convRepo.GetByID(dbc, u.ID, id)
	if err != nil {
		return nil, apierr.Internal("failed to load conversation", err)
	}
	if row == nil {
		return nil, apierr.NotFound("conversation not found")
	}
	lines, err := row.Utterances()
	if err != nil {
		return nil, apierr.Internal("failed to decode transcript", err)
	}
	corrections, err := cs.errorRepo.ListTop(dbc, u.ID, correctionScanLimit)
	if err != nil {
		return nil, apierr.Internal("failed to load corrections", err)
	}
	return &ConversationView{
		Session:      row,
		Turns:        AnnotateTurns(lines, corrections),
		FeedbackHTML: RenderFeedbackHTML(row.Feedback),
	}, nil
}

// AnnotateTurns attaches to each user turn every correction whose example is
// a case-insensitive substring of the turn. Matching is approximate: a turn
// may carry many corrections and a correction may attach to many turns.
func AnnotateTurns(lines []types.Utterance, corrections []*types.UserError) []AnnotatedTurn {
	out := make([]AnnotatedTurn, 0, len(lines))
	for _, l := range lines {
		turn := AnnotatedTurn{Role: l.Role, Text: l.Text, Corrections: []*types.UserError{}}
		if l.Role == types.RoleUser {
			text := strings.ToLower(l.Text)
			for _, c := range corrections {
				ex := strings.ToLower(strings.TrimSpace(c.Example))
				if ex != "" && strings.Contains(text, ex) {
					turn.Corrections = append(turn.Corrections, c)
				}
			}
		}
		out = append(out, turn)
	}
	return out
}

// RenderFeedbackHTML converts model Markdown to HTML with raw HTML stripped.
func RenderFeedbackHTML(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.Safelink | mdhtml.NofollowLinks | mdhtml.HrefTargetBlank,
	})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(md), p, r)))
}
