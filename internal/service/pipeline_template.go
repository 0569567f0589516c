package service

import (
	"github.com/goccy/go-yaml"
	assets "github.com/haatos/simple-deploy"
)

type TemplateStep struct {
	Name   string `yaml:"name"`
	Order  int64  `yaml:"order"`
	Script string `yaml:"script"`
}

type PipelineTemplate struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []TemplateStep `yaml:"steps"`
}

type templatesFile struct {
	Templates []PipelineTemplate `yaml:"templates"`
}

// LoadPipelineTemplates parses the default pipeline templates embedded in
// the binary.
func LoadPipelineTemplates() ([]PipelineTemplate, error) {
	b, err := assets.TemplatesFS.ReadFile("templates.yml")
	if err != nil {
		return nil, err
	}
	tf := new(templatesFile)
	if err := yaml.Unmarshal(b, tf); err != nil {
		return nil, err
	}
	return tf.Templates, nil
}
