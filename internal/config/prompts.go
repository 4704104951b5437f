package config

import (
	"bytes"
	"embed"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianshen/componentdoc/internal/errors"
)

// Names of the reasoning stages that carry a prompt record.
const (
	StageCallRelation = "call_relation"
	StageFlowDiagram  = "flow_diagram"
)

//go:embed prompts/*.yaml
var defaultPrompts embed.FS

// ModelOptions are the sampling options passed to the reasoning
// collaborator on every invocation.
type ModelOptions struct {
	Model            string  `yaml:"model" json:"model,omitempty"`
	Temperature      float64 `yaml:"temperature" json:"temperature"`
	TopP             float64 `yaml:"top_p" json:"top_p"`
	MaxTokens        int     `yaml:"max_tokens" json:"max_tokens"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" json:"frequency_penalty"`
}

// DefaultModelOptions returns the sampling defaults applied to any option a
// prompt record leaves out.
func DefaultModelOptions() ModelOptions {
	return ModelOptions{
		Temperature:      0.3,
		TopP:             0.7,
		MaxTokens:        2000,
		FrequencyPenalty: 0,
	}
}

// StageConfig is the prompt record of one reasoning stage. The on-disk
// shape is {config: {...}, sp: "...", up: "..."} in YAML or JSON.
type StageConfig struct {
	Options            ModelOptions `yaml:"config"`
	SystemPrompt       string       `yaml:"sp"`
	UserPromptTemplate string       `yaml:"up"`
}

// LoadStageConfig reads a prompt record from path. JSON files are accepted
// since JSON is a subset of YAML.
func LoadStageConfig(path string) (*StageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read stage config %s", path)
	}
	sc, err := parseStageConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse stage config %s", path)
	}
	return sc, nil
}

// DefaultStageConfig returns the embedded prompt record for the named stage.
func DefaultStageConfig(stage string) (*StageConfig, error) {
	data, err := defaultPrompts.ReadFile("prompts/" + stage + ".yaml")
	if err != nil {
		return nil, errors.Newf("no default prompt for stage %q", stage)
	}
	return parseStageConfig(data)
}

// ResolveStageConfig loads the record at path, or the embedded default for
// stage when path is empty. A model name set in the record wins over
// fallbackModel.
func ResolveStageConfig(stage, path, fallbackModel string) (*StageConfig, error) {
	var (
		sc  *StageConfig
		err error
	)
	if strings.TrimSpace(path) == "" {
		sc, err = DefaultStageConfig(stage)
	} else {
		sc, err = LoadStageConfig(path)
	}
	if err != nil {
		return nil, err
	}
	if sc.Options.Model == "" {
		sc.Options.Model = fallbackModel
	}
	return sc, nil
}

func parseStageConfig(data []byte) (*StageConfig, error) {
	sc := &StageConfig{Options: DefaultModelOptions()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(sc); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.UserPromptTemplate) == "" {
		return nil, errors.New("prompt record has an empty user prompt template (up)")
	}
	return sc, nil
}
