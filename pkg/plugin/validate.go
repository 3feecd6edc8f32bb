package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// rawPreviewLimit bounds how much of a malformed manifest is echoed
// back in a parse error. Never the full payload.
const rawPreviewLimit = 100

// ValidationError is one normalized schema violation
type ValidationError struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Value    any    `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// ValidationResult is the outcome of validating one manifest.
// All violations are collected in one pass so a plugin author can fix
// every field in a single round-trip.
type ValidationResult struct {
	Valid    bool
	Manifest *Manifest
	Errors   []ValidationError
}

// Validator validates raw plugin manifests against the manifest schema
type Validator struct {
	logger       zerolog.Logger
	schemaLoader gojsonschema.JSONLoader
}

// NewValidator creates a new manifest validator
func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{
		logger:       logger.With().Str("component", "manifest-validator").Logger(),
		schemaLoader: gojsonschema.NewStringLoader(ManifestSchema),
	}
}

// ValidateBytes validates raw manifest text. A JSON parse failure
// yields a single error at "/" with a truncated preview of the input.
func (v *Validator) ValidateBytes(data []byte) *ValidationResult {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:     "/",
				Message:  fmt.Sprintf("Manifest is not valid JSON: %v", err),
				Value:    preview(string(data)),
				Expected: "Valid JSON document",
			}},
		}
	}
	return v.ValidateValue(value)
}

// ValidateValue validates an already-parsed manifest value
func (v *Validator) ValidateValue(value any) *ValidationResult {
	obj, ok := value.(map[string]any)
	if !ok {
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:     "/",
				Message:  "Manifest must be a JSON object",
				Value:    value,
				Expected: "object",
			}},
		}
	}

	result, err := gojsonschema.Validate(v.schemaLoader, gojsonschema.NewGoLoader(obj))
	if err != nil {
		// Schema compilation cannot fail at runtime for a constant
		// schema; treat it as a root violation rather than panicking.
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:    "/",
				Message: fmt.Sprintf("Manifest could not be validated: %v", err),
			}},
		}
	}

	if !result.Valid() {
		errs := make([]ValidationError, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			errs = append(errs, normalizeError(re))
		}
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
		v.logger.Debug().Int("violations", len(errs)).Msg("Manifest failed validation")
		return &ValidationResult{Errors: errs}
	}

	manifest, err := decodeManifest(obj)
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:    "/",
				Message: fmt.Sprintf("Manifest could not be decoded: %v", err),
			}},
		}
	}

	v.logger.Debug().
		Str("id", manifest.ID).
		Str("version", manifest.Version).
		Msg("Manifest validated")

	return &ValidationResult{Valid: true, Manifest: manifest}
}

// ValidateFile reads and validates a manifest file. The returned error
// covers I/O only; validation outcomes are always in the result.
func (v *Validator) ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return v.ValidateBytes(data), nil
}

// decodeManifest maps a validated object into the typed struct
func decodeManifest(obj map[string]any) (*Manifest, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// normalizeError converts a gojsonschema violation into the uniform
// path/message/value/expected record, with tailored prose for the
// failure modes plugin authors actually hit.
func normalizeError(re gojsonschema.ResultError) ValidationError {
	field := re.Field()
	details := re.Details()
	out := ValidationError{
		Path:  pointerPath(field),
		Value: re.Value(),
	}

	switch re.Type() {
	case "required":
		prop, _ := details["property"].(string)
		out.Path = joinPointer(out.Path, prop)
		out.Message = fmt.Sprintf("Missing required field: %s", prop)
		out.Expected = "Field is required"
		out.Value = nil

	case "additional_property_not_allowed":
		prop, _ := details["property"].(string)
		out.Path = joinPointer(out.Path, prop)
		out.Message = fmt.Sprintf("Unknown property: %s", prop)
		out.Expected = "No properties beyond the manifest schema"
		out.Value = nil

	case "pattern":
		// details["pattern"] is a *regexp.Regexp, not a string
		out.Message = patternMessage(field)
		out.Expected = fmt.Sprintf("Pattern: %v", details["pattern"])

	case "enum":
		out.Message = fmt.Sprintf("Unknown permission %v; allowed permissions are: %s",
			re.Value(), permissionList())
		out.Expected = fmt.Sprintf("One of: %s", permissionList())

	case "unique":
		out.Message = fmt.Sprintf("Duplicate entries are not allowed in %s", field)
		out.Expected = "Unique items"

	case "string_gte":
		min := details["min"]
		out.Message = fmt.Sprintf("%s must be at least %v character(s) long", fieldLabel(field), min)
		out.Expected = fmt.Sprintf("Minimum length: %v", min)

	case "string_lte":
		max := details["max"]
		out.Message = fmt.Sprintf("%s must be at most %v character(s) long", fieldLabel(field), max)
		out.Expected = fmt.Sprintf("Maximum length: %v", max)

	case "array_max_items":
		n := details["max"]
		out.Message = fmt.Sprintf("%s may contain at most %v item(s)", fieldLabel(field), n)
		out.Expected = fmt.Sprintf("Maximum items: %v", n)

	case "format":
		out.Message = "Homepage must be a valid URL, for example https://example.com/my-plugin"
		out.Expected = "Format: uri"

	case "invalid_type":
		expected, _ := details["expected"].(string)
		out.Message = fmt.Sprintf("%s has the wrong type", fieldLabel(field))
		out.Expected = fmt.Sprintf("Type: %s", expected)

	default:
		out.Message = re.Description()
	}

	return out
}

// patternMessage returns tailored prose for the three pattern-guarded
// fields instead of a generic regex-mismatch message.
func patternMessage(field string) string {
	switch field {
	case "id":
		return "Plugin ID must start with a letter and contain only letters, numbers, dots, hyphens, or underscores"
	case "version":
		return "Version must be a semantic version like 1.2.3, optionally with a pre-release or build suffix like 1.2.3-beta.1"
	case "main":
		return "Main must be a relative path to a script file (.js, .mjs, or .cjs) and must not start with a path separator"
	default:
		return fmt.Sprintf("%s does not match the required format", fieldLabel(field))
	}
}

// pointerPath converts gojsonschema's dotted field notation into a
// JSON-pointer-style path relative to the manifest root.
func pointerPath(field string) string {
	if field == "" || field == "(root)" {
		return "/"
	}
	return "/" + strings.ReplaceAll(field, ".", "/")
}

func joinPointer(base, prop string) string {
	if prop == "" {
		return base
	}
	if base == "/" {
		return "/" + prop
	}
	return base + "/" + prop
}

func fieldLabel(field string) string {
	if field == "" || field == "(root)" {
		return "Manifest"
	}
	return field
}

func permissionList() string {
	parts := make([]string, len(AllPermissions))
	for i, p := range AllPermissions {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

func preview(s string) string {
	if len(s) <= rawPreviewLimit {
		return s
	}
	// Back off to a rune boundary so the preview stays valid UTF-8
	cut := rawPreviewLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// FormatErrors renders a validation error list as a numbered,
// human-readable report suitable for surfacing install failures.
func FormatErrors(errs []ValidationError) string {
	var b strings.Builder
	for i, e := range errs {
		fmt.Fprintf(&b, "%d. %s (at %s)", i+1, e.Message, e.Path)
		if e.Expected != "" {
			fmt.Fprintf(&b, " - Expected: %s", e.Expected)
		}
		b.WriteString("\n")
	}
	return b.String()
}
