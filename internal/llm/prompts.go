package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type PromptTemplate struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`

	system *template.Template
	user   *template.Template
}

type Prompts struct {
	ModuleNarrative PromptTemplate `yaml:"module_narrative"`
	LessonNarrative PromptTemplate `yaml:"lesson_narrative"`
	LessonTitle     PromptTemplate `yaml:"lesson_title"`
	Evaluation      PromptTemplate `yaml:"evaluation"`
}

type Profile struct {
	JobRole          string
	Region           string
	ValueChain       string
	StatedChallenges string
	Notes            string
}

type NarrativeInput struct {
	Profile         Profile
	Module          string
	Lesson          string
	Syllabus        string
	ModuleNarrative string
}

type TitleInput struct {
	Lesson string
	Text   string
}

type EvaluationInput struct {
	Challenge string
	Answer    string
	Final     bool
}

// LoadPrompts parses the embedded prompt set and compiles its templates.
func LoadPrompts() (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(promptsYAML, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	for name, t := range map[string]*PromptTemplate{
		"module_narrative": &p.ModuleNarrative,
		"lesson_narrative": &p.LessonNarrative,
		"lesson_title":     &p.LessonTitle,
		"evaluation":       &p.Evaluation,
	} {
		if err := t.compile(name); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (t *PromptTemplate) compile(name string) error {
	if strings.TrimSpace(t.User) == "" {
		return fmt.Errorf("prompt %s has no user template", name)
	}
	var err error
	if t.user, err = template.New(name + ".user").Option("missingkey=error").Parse(t.User); err != nil {
		return fmt.Errorf("compile prompt %s: %w", name, err)
	}
	if t.System != "" {
		if t.system, err = template.New(name + ".system").Option("missingkey=error").Parse(t.System); err != nil {
			return fmt.Errorf("compile prompt %s: %w", name, err)
		}
	}
	return nil
}

// Request renders the template with data into a chat request using the template's sampling settings.
func (t *PromptTemplate) Request(data any) (ChatRequest, error) {
	req := ChatRequest{Temperature: t.Temperature, MaxTokens: t.MaxTokens}
	if t.system != nil {
		text, err := execute(t.system, data)
		if err != nil {
			return ChatRequest{}, err
		}
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: text})
	}
	text, err := execute(t.user, data)
	if err != nil {
		return ChatRequest{}, err
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: text})
	return req, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
