package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/RevCBH/floki/internal/logging"
)

// TemplateData is the data available to a configuration template.
type TemplateData struct {
	// Env holds the host environment variables
	Env map[string]string
}

// Render expands the configuration file as a text/template before parsing.
// Templates can read the host environment through .Env and load values
// files with the yaml, json and toml functions; loader paths are relative
// to the directory of source.
func Render(content, source string) (string, error) {
	logging.Debugf("Rendering template: %s", source)

	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("could not normalize the file path '%s': %w", source, err)
	}
	dir := filepath.Dir(abs)

	tmpl, err := template.New(filepath.Base(source)).
		Option("missingkey=zero").
		Funcs(loaderFuncs(dir)).
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("there was a problem rendering the template '%s': %w", source, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, TemplateData{Env: environ()}); err != nil {
		return "", fmt.Errorf("there was a problem rendering the template '%s': %w", source, err)
	}
	return out.String(), nil
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}

func loaderFuncs(dir string) template.FuncMap {
	return template.FuncMap{
		"yaml": func(file string) (any, error) { return loadFile(dir, file, parseYAML) },
		"json": func(file string) (any, error) { return loadFile(dir, file, parseJSON) },
		"toml": func(file string) (any, error) { return loadFile(dir, file, parseTOML) },
	}
}

func loadFile(dir, file string, parse func([]byte) (any, error)) (any, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parseYAML(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse file as YAML: %w", err)
	}
	stripTags(&node)

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to convert YAML value: %w", err)
	}
	return v, nil
}

// stripTags drops application-specific tags such as GitLab's !reference so
// the tagged value decodes as its plain form.
func stripTags(node *yaml.Node) {
	if strings.HasPrefix(node.Tag, "!") && !strings.HasPrefix(node.Tag, "!!") {
		node.Tag = ""
	}
	for _, child := range node.Content {
		stripTags(child)
	}
}

func parseJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse file as JSON: %w", err)
	}
	return v, nil
}

func parseTOML(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse file as TOML: %w", err)
	}
	return v, nil
}
