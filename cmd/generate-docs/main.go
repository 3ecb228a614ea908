// Copyright 2025 Andrew Khoury
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// generate-docs generates documentation from config structs and the command tree
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drew/flakewatch/internal/cli"
	"github.com/drew/flakewatch/internal/config"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Required    bool
	Default     string
	Description string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Array       bool
	Fields      []FieldDoc
}

// outputs maps generated files to their renderers
var outputs = []struct {
	path   string
	render func([]SectionDoc) (string, error)
}{
	{"flakewatch.example.toml", renderExampleTOML},
	{"flakewatch.schema.json", renderJSONSchema},
	{"docs/configuration.md", renderMarkdownDocs},
	{"docs/cli-reference.md", func([]SectionDoc) (string, error) { return renderCLIDocs(cli.NewRootCommand(cli.Options{})), nil }},
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs")
		fmt.Println("Generates documentation from config structs:")
		for _, o := range outputs {
			fmt.Printf("  - %s\n", o.path)
		}
		return
	}

	docs := buildDocumentation()

	for _, o := range outputs {
		content, err := o.render(docs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", o.path, err)
			os.Exit(1)
		}
		if err := writeFile(o.path, content); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", o.path, err)
			os.Exit(1)
		}
		fmt.Printf("✓ Generated %s\n", o.path)
	}
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	return []SectionDoc{
		extractSection("detector", "Flaky detection parameters. Command line flags override these values.", false, defaults.Detector),
		extractSection("owners", "Ownership rules, checked in order; the first rule whose match is a substring of the test file wins. Defining any rule replaces the built-in list.", true, config.OwnerRule{}),
	}
}

// extractSection uses reflection to extract field documentation from struct tags
func extractSection(name, description string, array bool, defaultValue interface{}) SectionDoc {
	section := SectionDoc{
		Name:        name,
		Description: description,
		Array:       array,
		Fields:      []FieldDoc{},
	}

	t := reflect.TypeOf(defaultValue)
	v := reflect.ValueOf(defaultValue)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		docTag := field.Tag.Get("doc")
		tomlTag := field.Tag.Get("toml")
		if docTag == "" || tomlTag == "" {
			continue
		}

		section.Fields = append(section.Fields, FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Required:    field.Tag.Get("required") == "true",
			Default:     getDefaultValue(v.Field(i)),
			Description: docTag,
		})
	}

	return section
}

// getFieldType returns a string representation of the field type
func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue returns a string representation of the default value; zero
// values have no default
func getDefaultValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.IsZero() {
		return ""
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return ""
	}
}

func renderExampleTOML(docs []SectionDoc) (string, error) {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# flakewatch Configuration Reference
# =============================================================================
# Every available option with its default. Save as flakewatch.toml or pass
# --config <path>.
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# %s\n", section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n")

		if section.Array {
			for _, rule := range config.DefaultOwnerRules() {
				sb.WriteString(fmt.Sprintf("[[%s]]\nmatch = %q\nteam = %q\n\n", section.Name, rule.Match, rule.Team))
			}
			continue
		}

		sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))
		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			value := field.Default
			switch {
			case value == "":
				sb.WriteString(fmt.Sprintf("# %s = \n", field.Name))
			case field.Type == "string":
				sb.WriteString(fmt.Sprintf("%s = %q\n", field.Name, value))
			default:
				sb.WriteString(fmt.Sprintf("%s = %s\n", field.Name, value))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func renderJSONSchema(docs []SectionDoc) (string, error) {
	schema := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "flakewatch Configuration",
		"description":          "Configuration schema for flakewatch",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           make(map[string]interface{}),
	}
	properties := schema["properties"].(map[string]interface{})

	for _, section := range docs {
		object := map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           make(map[string]interface{}),
		}
		fields := object["properties"].(map[string]interface{})
		var required []string

		for _, field := range section.Fields {
			fieldSchema := map[string]interface{}{
				"description": field.Description,
			}
			switch field.Type {
			case "string":
				fieldSchema["type"] = "string"
				if field.Default != "" {
					fieldSchema["default"] = field.Default
				}
			case "int":
				fieldSchema["type"] = "integer"
				if n, err := strconv.Atoi(field.Default); err == nil {
					fieldSchema["default"] = n
				}
			case "float":
				fieldSchema["type"] = "number"
				if f, err := strconv.ParseFloat(field.Default, 64); err == nil {
					fieldSchema["default"] = f
				}
			case "bool":
				fieldSchema["type"] = "boolean"
			}
			if field.Required {
				required = append(required, field.Name)
			}
			fields[field.Name] = fieldSchema
		}
		if len(required) > 0 {
			object["required"] = required
		}

		if section.Array {
			properties[section.Name] = map[string]interface{}{
				"type":        "array",
				"description": section.Description,
				"items":       object,
			}
			continue
		}
		object["description"] = section.Description
		properties[section.Name] = object
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func renderMarkdownDocs(docs []SectionDoc) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Configuration\n\n")
	sb.WriteString("flakewatch reads `" + config.DefaultConfigFile + "` from the working directory, or the file given with `--config`. ")
	sb.WriteString("Every setting is optional. Unknown keys are rejected.\n\n")

	for _, section := range docs {
		if section.Array {
			sb.WriteString("### `[[" + section.Name + "]]`\n\n")
		} else {
			sb.WriteString("### `[" + section.Name + "]`\n\n")
		}
		sb.WriteString(section.Description + "\n\n")

		sb.WriteString("| Field | Type | Required | Default | Description |\n")
		sb.WriteString("|-------|------|----------|---------|-------------|\n")

		for _, field := range section.Fields {
			required := "No"
			if field.Required {
				required = "**Yes**"
			}
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | `%s` | %s |\n",
				field.Name, field.Type, required, defaultVal, field.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Built-in ownership rules:\n\n")
	for _, rule := range config.DefaultOwnerRules() {
		sb.WriteString(fmt.Sprintf("1. `%s` → %s\n", rule.Match, rule.Team))
	}
	sb.WriteString(fmt.Sprintf("\nTests matching no rule belong to `%s`.\n", config.DefaultOwner))

	return sb.String(), nil
}

// renderCLIDocs documents every subcommand and its flags
func renderCLIDocs(root *cobra.Command) string {
	var sb strings.Builder

	sb.WriteString("# CLI Reference\n\n")
	sb.WriteString(root.Long + "\n\n")

	sb.WriteString("### Global Flags\n\n")
	writeFlagTable(&sb, root.PersistentFlags())

	for _, cmd := range root.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		sb.WriteString(fmt.Sprintf("## `%s %s`\n\n", root.Name(), cmd.Use))
		sb.WriteString(cmd.Short + "\n\n")
		if cmd.HasLocalFlags() {
			writeFlagTable(&sb, cmd.LocalNonPersistentFlags())
		}
	}

	return sb.String()
}

func writeFlagTable(sb *strings.Builder, flags *pflag.FlagSet) {
	sb.WriteString("| Flag | Description | Default |\n")
	sb.WriteString("|------|-------------|---------|\n")
	flags.VisitAll(func(f *pflag.Flag) {
		def := f.DefValue
		if def == "" || def == "0" || def == "false" {
			def = "-"
		}
		sb.WriteString(fmt.Sprintf("| `--%s` | %s | `%s` |\n", f.Name, f.Usage, def))
	})
	sb.WriteString("\n")
}
