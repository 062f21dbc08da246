package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/parla-backend/internal/platform/logger"
)

const promptsPathEnv = "PROMPTS_PATH"

//go:embed prompts.yaml
var embeddedPrompts []byte

// Template names.
const (
	TutorSystem          = "tutor_system"
	RealtimeInstructions = "realtime_instructions"
	FeedbackSystem       = "feedback_system"
	FeedbackUser         = "feedback_user"
	PlannerSystem        = "planner_system"
	PlannerUser          = "planner_user"
)

// Parameter groups.
const (
	ParamsReply    = "reply"
	ParamsFeedback = "feedback"
	ParamsPlanner  = "planner"
)

// Fallback keys.
const (
	FallbackReplyEmpty    = "reply_empty"
	FallbackReplyError    = "reply_error"
	FallbackFeedbackEmpty = "feedback_empty"
	FallbackFeedbackError = "feedback_error"
)

var requiredTemplates = []string{TutorSystem, RealtimeInstructions, FeedbackSystem, FeedbackUser, PlannerSystem, PlannerUser}
var requiredParams = []string{ParamsReply, ParamsFeedback, ParamsPlanner}
var requiredFallbacks = []string{FallbackReplyEmpty, FallbackReplyError, FallbackFeedbackEmpty, FallbackFeedbackError}

type Params struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type yamlPromptFile struct {
	Version   int               `yaml:"version"`
	Params    map[string]Params `yaml:"params"`
	Fallbacks map[string]string `yaml:"fallbacks"`
	Templates map[string]string `yaml:"templates"`
}

// Set is a parsed, validated prompt document. It is immutable after Load.
type Set struct {
	params    map[string]Params
	fallbacks map[string]string
	templates *template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Load reads PROMPTS_PATH when set, otherwise the embedded document.
func Load(log *logger.Logger) (*Set, error) {
	data := embeddedPrompts
	source := "embedded"
	if path := strings.TrimSpace(os.Getenv(promptsPathEnv)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		data = b
		source = path
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("prompts (%s): %w", source, err)
	}
	if log != nil {
		log.Info("Prompts loaded", "source", source)
	}
	return set, nil
}

// Default parses the embedded document; it panics only if the binary was built
// with an invalid prompts.yaml.
func Default() *Set {
	set, err := Parse(embeddedPrompts)
	if err != nil {
		panic(err)
	}
	return set
}

func Parse(data []byte) (*Set, error) {
	var f yamlPromptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, err
	}
	root := template.New("prompts").Funcs(funcs).Option("missingkey=zero")
	for name, body := range f.Templates {
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
	}
	return &Set{params: f.Params, fallbacks: f.Fallbacks, templates: root}, nil
}

func validate(f *yamlPromptFile) error {
	var errs []error
	for _, name := range requiredTemplates {
		if strings.TrimSpace(f.Templates[name]) == "" {
			errs = append(errs, fmt.Errorf("missing template %q", name))
		}
	}
	for _, name := range requiredParams {
		p, ok := f.Params[name]
		if !ok {
			errs = append(errs, fmt.Errorf("missing params %q", name))
			continue
		}
		if p.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("params %q: max_tokens must be positive", name))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			errs = append(errs, fmt.Errorf("params %q: temperature out of range", name))
		}
	}
	for _, name := range requiredFallbacks {
		if strings.TrimSpace(f.Fallbacks[name]) == "" {
			errs = append(errs, fmt.Errorf("missing fallback %q", name))
		}
	}
	return errors.Join(errs...)
}

// Render executes the named template and trims the result.
func (s *Set) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (s *Set) Params(name string) Params {
	return s.params[name]
}

func (s *Set) Fallback(name string) string {
	return strings.TrimSpace(s.fallbacks[name])
}
