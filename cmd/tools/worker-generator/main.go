// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"training-admissions/internal/common/errors"
	"training-admissions/pkg/registry"
)

const modulePath = "training-admissions"

// WorkerData holds data for templates
type WorkerData struct {
	Module       string
	Name         string
	PackageName  string
	Dir          string
	TaskType     string
	Description  string
	Timeout      string
	ErrorCodes   []errors.ErrorCode
	InputFields  []Field
	OutputFields []Field
}

// Field is one generated struct field.
type Field struct {
	Name     string
	GoType   string
	JSONName string
	Required bool
	Comment  string
}

// Tag renders the struct tag for f.
func (f Field) Tag() string {
	if f.Required {
		return fmt.Sprintf("`json:%q`", f.JSONName)
	}
	return fmt.Sprintf("`json:\"%s,omitempty\"`", f.JSONName)
}

// schemaFields extracts the properties of a JSON schema object, sorted
// by name so output is stable.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	required := map[string]bool{}
	if list, ok := schema["required"].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	fields := make([]Field, 0, len(props))
	for name, raw := range props {
		details, _ := raw.(map[string]interface{})
		desc, _ := details["description"].(string)
		fields = append(fields, Field{
			Name:     goFieldName(name),
			GoType:   goTypeFromJSONType(details["type"]),
			JSONName: name,
			Required: required[name],
			Comment:  desc,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].JSONName < fields[j].JSONName })
	return fields
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	}
	return "interface{}"
}

var initialisms = map[string]string{"Id": "ID", "Url": "URL", "Api": "API"}

// goFieldName turns a camelCase JSON name into an exported Go name.
func goFieldName(name string) string {
	if name == "" {
		return name
	}
	out := strings.ToUpper(name[:1]) + name[1:]
	for from, to := range initialisms {
		if strings.HasSuffix(out, from) {
			out = strings.TrimSuffix(out, from) + to
		}
	}
	return out
}

const configTemplate = `// {{ .Dir }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ timeoutExpr .Timeout }},
	}
}
`

const modelsTemplate = `// {{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
{{- if .Comment }}
	// {{ .Comment }}
{{- end }}
	{{ .Name }} {{ .GoType }} {{ .Tag }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
{{- if .Comment }}
	// {{ .Comment }}
{{- end }}
	{{ .Name }} {{ .GoType }} {{ .Tag }}
{{- end }}
}
`

const handlerTemplate = `// {{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
)

const (
	TaskType = "{{ .TaskType }}"
)
{{- if .ErrorCodes }}

// ThrownErrors are the codes this worker may raise to the process.
var ThrownErrors = []errors.ErrorCode{
{{- range .ErrorCodes }}
	"{{ . }}",
{{- end }}
}
{{- end }}

type Handler struct {
	config       *Config
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		logger.FieldJobKey: job.Key,
		"workflowKey":      job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input is required")
	}
	return &Output{}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
`

const testTemplate = `// {{ .Dir }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}
`

// timeoutExpr renders a registry timeout such as "5s" as a Go duration
// expression, defaulting to 30 seconds.
func timeoutExpr(timeout string) string {
	units := map[string]string{"ms": "time.Millisecond", "s": "time.Second", "m": "time.Minute"}
	for _, suffix := range []string{"ms", "s", "m"} {
		if n := strings.TrimSuffix(timeout, suffix); n != timeout && n != "" && strings.Trim(n, "0123456789") == "" {
			return n + " * " + units[suffix]
		}
	}
	return "30 * time.Second"
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

func newWorkerData(act *registry.Activity, outputDir string) WorkerData {
	dir := filepath.ToSlash(filepath.Join(outputDir, act.ID))
	return WorkerData{
		Module:       modulePath,
		Name:         act.DisplayName,
		PackageName:  strings.ReplaceAll(act.ID, "-", ""),
		Dir:          strings.TrimPrefix(dir, "./"),
		TaskType:     act.TaskType,
		Description:  act.Description,
		Timeout:      act.Timeout,
		ErrorCodes:   act.ErrorCodes,
		InputFields:  schemaFields(act.InputSchema),
		OutputFields: schemaFields(act.OutputSchema),
	}
}

// generate writes a worker scaffold for act under outputDir/<id> and
// returns the files written. An existing worker is only replaced when
// force is set.
func generate(act *registry.Activity, outputDir string, force bool) ([]string, error) {
	data := newWorkerData(act, outputDir)
	workerDir := filepath.Join(outputDir, act.ID)

	if _, err := os.Stat(workerDir); err == nil && !force {
		return nil, fmt.Errorf("worker directory %s already exists (use -force to overwrite)", workerDir)
	}
	if err := os.MkdirAll(workerDir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	funcs := template.FuncMap{"timeoutExpr": timeoutExpr}
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		tmpl, err := template.New(name).Funcs(funcs).Parse(templates[name])
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", name, err)
		}

		path := filepath.Join(workerDir, name)
		if err := os.WriteFile(path, src, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func main() {
	activity := flag.String("activity", "", "Task type from registry (e.g., lookup-participants)")
	outputDir := flag.String("output", "internal/workers/application", "Directory the worker package is created in")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite an existing worker directory")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator -activity lookup-participants")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	act, ok := reg.Find(*activity)
	if !ok {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	files, err := generate(act, *outputDir, *force)
	for _, f := range files {
		fmt.Printf("✓ Generated %s\n", f)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement execute in handler.go\n")
	fmt.Printf("  2. Register the worker in cmd/worker-manager/main.go\n")
	fmt.Printf("  3. Add %s to the workers section of configs/config.yaml\n", act.TaskType)
}
