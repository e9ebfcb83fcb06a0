package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lanonasis-gateway/internal/gwerrors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Risk levels a descriptor may advertise. They are informational and surface
// only in capability cards, never in dispatch decisions.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

var riskLevels = map[string]bool{
	RiskLow:      true,
	RiskMedium:   true,
	RiskHigh:     true,
	RiskCritical: true,
}

// Field describes one tool argument. Type and Description cover the common
// case; Schema carries any further JSON Schema constraints for the property
// (enum, minimum/maximum, items, length bounds). Values set on the struct
// override entries of the same name in Schema.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     interface{}
	Schema      map[string]interface{}
}

// property renders the field as a JSON Schema property map.
func (f Field) property() map[string]interface{} {
	prop := make(map[string]interface{}, len(f.Schema)+3)
	for k, v := range f.Schema {
		prop[k] = v
	}
	if f.Type != "" {
		prop["type"] = f.Type
	}
	if f.Description != "" {
		prop["description"] = f.Description
	}
	if f.Default != nil {
		prop["default"] = f.Default
	}
	return prop
}

// Descriptor declares a tool: identity, behavior annotations, and the
// argument fields from which both the advertised input schema and the strict
// validation schema are derived.
type Descriptor struct {
	Name        string
	Title       string
	Description string
	ReadOnly    bool
	Destructive bool
	Idempotent  bool
	OpenWorld   bool
	RiskLevel   string
	Fields      []Field
}

// InputSchema renders the advertised MCP input schema.
func (d Descriptor) InputSchema() mcp.ToolInputSchema {
	properties := make(map[string]interface{}, len(d.Fields))
	required := []string{}

	for _, f := range d.Fields {
		properties[f.Name] = f.property()
		if f.Required {
			required = append(required, f.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// mcpTool renders the full MCP tool definition including annotations.
func (d Descriptor) mcpTool() mcp.Tool {
	return mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema(),
		Annotations: mcp.ToolAnnotation{
			Title:           d.Title,
			ReadOnlyHint:    mcp.ToBoolPtr(d.ReadOnly),
			DestructiveHint: mcp.ToBoolPtr(d.Destructive),
			IdempotentHint:  mcp.ToBoolPtr(d.Idempotent),
			OpenWorldHint:   mcp.ToBoolPtr(d.OpenWorld),
		},
	}
}

// strictDocument renders the validation schema. Unlike the advertised schema
// it rejects fields the descriptor does not declare.
func (d Descriptor) strictDocument() map[string]interface{} {
	in := d.InputSchema()
	doc := map[string]interface{}{
		"type":                 "object",
		"properties":           in.Properties,
		"additionalProperties": false,
	}
	if len(in.Required) > 0 {
		doc["required"] = in.Required
	}
	return doc
}

// compileSchema compiles the strict document so dispatch can validate
// arguments without re-parsing the schema per call.
func compileSchema(name string, doc map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", name, err)
	}

	url := name + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}
	return schema, nil
}

// Tool is a registered tool: its descriptor, its compiled validation schema,
// the schema document the validator was compiled from, and the handler.
type Tool struct {
	Descriptor

	handler Handler
	mcp     mcp.Tool
	schema  *jsonschema.Schema
	doc     map[string]interface{}
}

// validateArgs checks the arguments against the tool's strict schema and maps
// failures to per-field messages.
func (t *Tool) validateArgs(args map[string]interface{}) *gwerrors.Error {
	if args == nil {
		args = map[string]interface{}{}
	}

	err := t.schema.Validate(args)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return gwerrors.Validation(fmt.Sprintf("invalid arguments for %s", t.Name))
	}
	return gwerrors.Validation(fmt.Sprintf("invalid arguments for %s", t.Name), t.fieldErrors(ve)...)
}

// fieldErrors flattens the validator's cause tree into {field, message}
// pairs. Messages for bound violations are rebuilt from the schema document
// so they name the violated limit; everything else keeps the validator's
// message.
func (t *Tool) fieldErrors(ve *jsonschema.ValidationError) []gwerrors.FieldError {
	var leaves []*jsonschema.ValidationError
	collectLeaves(ve, &leaves)

	out := make([]gwerrors.FieldError, 0, len(leaves))
	for _, leaf := range leaves {
		keyword := tailSegment(leaf.KeywordLocation)
		field := fieldPath(leaf.InstanceLocation)

		switch keyword {
		case "required":
			names := quotedNames(leaf.Message)
			for _, name := range names {
				out = append(out, gwerrors.FieldError{Field: name, Message: "required field is missing"})
			}
			if len(names) > 0 {
				continue
			}
		case "additionalProperties":
			names := quotedNames(leaf.Message)
			for _, name := range names {
				out = append(out, gwerrors.FieldError{Field: name, Message: "unknown field"})
			}
			if len(names) > 0 {
				continue
			}
		case "maximum", "exclusiveMaximum", "minimum", "exclusiveMinimum",
			"maxLength", "minLength", "maxItems", "minItems":
			if bound, ok := t.keywordValue(leaf.InstanceLocation, keyword); ok {
				out = append(out, gwerrors.FieldError{Field: field, Message: boundMessage(keyword, bound)})
				continue
			}
		case "enum":
			if vals, ok := t.keywordValue(leaf.InstanceLocation, "enum"); ok {
				out = append(out, gwerrors.FieldError{Field: field, Message: "must be one of " + joinEnum(vals)})
				continue
			}
		}

		out = append(out, gwerrors.FieldError{Field: field, Message: leaf.Message})
	}

	if len(out) == 0 {
		out = append(out, gwerrors.FieldError{Field: "arguments", Message: ve.Message})
	}
	return out
}

// keywordValue walks the schema document along the instance location and
// returns the named keyword's value at that point.
func (t *Tool) keywordValue(instanceLocation, keyword string) (interface{}, bool) {
	node := t.doc
	for _, seg := range pointerSegments(instanceLocation) {
		if isIndex(seg) {
			items, ok := node["items"].(map[string]interface{})
			if !ok {
				return nil, false
			}
			node = items
			continue
		}
		props, ok := node["properties"].(map[string]interface{})
		if !ok {
			return nil, false
		}
		child, ok := props[seg].(map[string]interface{})
		if !ok {
			return nil, false
		}
		node = child
	}
	v, ok := node[keyword]
	return v, ok
}

func boundMessage(keyword string, bound interface{}) string {
	switch keyword {
	case "maximum", "exclusiveMaximum":
		return fmt.Sprintf("exceeds maximum %v", bound)
	case "minimum", "exclusiveMinimum":
		return fmt.Sprintf("below minimum %v", bound)
	case "maxLength":
		return fmt.Sprintf("exceeds maximum length %v", bound)
	case "minLength":
		return fmt.Sprintf("below minimum length %v", bound)
	case "maxItems":
		return fmt.Sprintf("exceeds maximum item count %v", bound)
	default:
		return fmt.Sprintf("below minimum item count %v", bound)
	}
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, ve)
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// fieldPath renders a JSON Pointer instance location as a readable argument
// path: "/limit" becomes "limit", "/tags/0" becomes "tags[0]".
func fieldPath(instanceLocation string) string {
	segs := pointerSegments(instanceLocation)
	if len(segs) == 0 {
		return "arguments"
	}

	var b strings.Builder
	for i, seg := range segs {
		if isIndex(seg) {
			fmt.Fprintf(&b, "[%s]", seg)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func pointerSegments(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}
	segs := strings.Split(pointer, "/")
	for i, seg := range segs {
		seg = strings.ReplaceAll(seg, "~1", "/")
		segs[i] = strings.ReplaceAll(seg, "~0", "~")
	}
	return segs
}

func isIndex(seg string) bool {
	_, err := strconv.Atoi(seg)
	return err == nil
}

func tailSegment(location string) string {
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[i+1:]
	}
	return location
}

var quotedName = regexp.MustCompile(`'([^']+)'`)

// quotedNames extracts the quoted property names from validator messages such
// as "missing properties: 'query'".
func quotedNames(message string) []string {
	matches := quotedName.FindAllStringSubmatch(message, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func joinEnum(v interface{}) string {
	switch vals := v.(type) {
	case []string:
		return strings.Join(vals, ", ")
	case []interface{}:
		parts := make([]string, len(vals))
		for i := range vals {
			parts[i] = fmt.Sprintf("%v", vals[i])
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
