package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(zerolog.New(os.Stdout).Level(zerolog.Disabled))
}

func validManifestJSON() string {
	return `{
		"id": "com.acme.tool",
		"name": "Acme Tool",
		"version": "1.0.0",
		"description": "A tool for testing",
		"author": "Acme Inc",
		"main": "index.js"
	}`
}

func errorAt(errs []ValidationError, path string) *ValidationError {
	for i := range errs {
		if errs[i].Path == path {
			return &errs[i]
		}
	}
	return nil
}

func TestValidator_ValidateBytes(t *testing.T) {
	v := testValidator(t)

	t.Run("accepts minimal valid manifest", func(t *testing.T) {
		result := v.ValidateBytes([]byte(validManifestJSON()))

		require.True(t, result.Valid, "errors: %v", result.Errors)
		require.NotNil(t, result.Manifest)
		assert.Equal(t, "com.acme.tool", result.Manifest.ID)
		assert.Equal(t, "Acme Tool", result.Manifest.Name)
		assert.Equal(t, "1.0.0", result.Manifest.Version)
		assert.Equal(t, "index.js", result.Manifest.Main)
	})

	t.Run("accepts manifest with all optional fields", func(t *testing.T) {
		result := v.ValidateBytes([]byte(`{
			"id": "com.acme.full",
			"name": "Full Plugin",
			"version": "2.1.3-beta.1+build.5",
			"description": "A complete plugin",
			"author": "Acme Inc",
			"main": "dist/main.js",
			"permissions": ["query:read", "ui:menu", "connection:info"],
			"engines": {"sqlpro": ">=1.0.0 <2.0.0"},
			"homepage": "https://acme.example.com/tool",
			"repository": "https://github.com/acme/tool",
			"license": "MIT",
			"keywords": ["export", "csv"],
			"icon": "icon.png",
			"screenshots": ["shot1.png", "shot2.png"],
			"apiVersion": "1"
		}`))

		require.True(t, result.Valid, "errors: %v", result.Errors)
		assert.Len(t, result.Manifest.Permissions, 3)
		require.NotNil(t, result.Manifest.Engines)
		assert.Equal(t, ">=1.0.0 <2.0.0", result.Manifest.Engines.SQLPro)
		assert.Len(t, result.Manifest.Keywords, 2)
		assert.Len(t, result.Manifest.Screenshots, 2)
	})

	t.Run("reports parse failure with truncated preview", func(t *testing.T) {
		raw := "{not json at all " + strings.Repeat("x", 200)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		e := result.Errors[0]
		assert.Equal(t, "/", e.Path)
		assert.Contains(t, e.Message, "not valid JSON")
		preview, ok := e.Value.(string)
		require.True(t, ok)
		assert.Len(t, preview, rawPreviewLimit)
	})

	t.Run("preview never splits a multi-byte rune", func(t *testing.T) {
		// 9-byte prefix puts the byte limit mid-rune in the é run
		raw := "{broken: " + strings.Repeat("é", rawPreviewLimit)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		preview, ok := result.Errors[0].Value.(string)
		require.True(t, ok)
		assert.True(t, utf8.ValidString(preview))
		assert.LessOrEqual(t, len(preview), rawPreviewLimit)
	})

	t.Run("rejects non-object input", func(t *testing.T) {
		for _, raw := range []string{`[1, 2, 3]`, `"hello"`, `42`, `null`} {
			result := v.ValidateBytes([]byte(raw))

			require.False(t, result.Valid, "input: %s", raw)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "/", result.Errors[0].Path)
			assert.Equal(t, "object", result.Errors[0].Expected)
		}
	})

	t.Run("reports one required error per missing field", func(t *testing.T) {
		result := v.ValidateBytes([]byte(`{"id": "com.acme.tool"}`))

		require.False(t, result.Valid)
		for _, field := range []string{"name", "version", "description", "author", "main"} {
			e := errorAt(result.Errors, "/"+field)
			require.NotNil(t, e, "expected error for missing %s", field)
			assert.Contains(t, e.Message, field)
			assert.Equal(t, "Field is required", e.Expected)
		}
	})

	t.Run("rejects unrecognized top-level property", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), `"id":`, `"sneaky": true, "id":`, 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/sneaky")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "sneaky")
	})

	t.Run("collects all violations in one pass", func(t *testing.T) {
		result := v.ValidateBytes([]byte(`{
			"id": "1bad",
			"name": "",
			"version": "1.0",
			"description": "d",
			"author": "a",
			"main": "/abs/path.js",
			"unknown": 1
		}`))

		require.False(t, result.Valid)
		assert.NotNil(t, errorAt(result.Errors, "/id"))
		assert.NotNil(t, errorAt(result.Errors, "/name"))
		assert.NotNil(t, errorAt(result.Errors, "/version"))
		assert.NotNil(t, errorAt(result.Errors, "/main"))
		assert.NotNil(t, errorAt(result.Errors, "/unknown"))
		assert.GreaterOrEqual(t, len(result.Errors), 5)
	})
}

func TestValidator_IDPattern(t *testing.T) {
	v := testValidator(t)

	t.Run("rejects id starting with digit", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "com.acme.tool", "1bad", 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/id")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "must start with a letter")
		assert.Equal(t, "Pattern: ^[a-zA-Z][a-zA-Z0-9._-]*$", e.Expected)
	})

	t.Run("accepts dotted ids", func(t *testing.T) {
		for _, id := range []string{"com.acme.tool", "a", "export-csv", "my_plugin", "Tool2"} {
			raw := strings.Replace(validManifestJSON(), "com.acme.tool", id, 1)
			result := v.ValidateBytes([]byte(raw))
			assert.True(t, result.Valid, "id %q should be valid: %v", id, result.Errors)
		}
	})
}

func TestValidator_VersionPattern(t *testing.T) {
	v := testValidator(t)

	t.Run("rejects two-part versions", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "1.0.0", "1.0", 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/version")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "semantic version")
		assert.Equal(t, `Pattern: ^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`, e.Expected)
	})

	t.Run("accepts pre-release and build suffixes", func(t *testing.T) {
		for _, version := range []string{"1.0.0", "1.0.0-beta.1", "2.3.4-rc.1+build.99", "0.0.1+sha.abcdef"} {
			raw := strings.Replace(validManifestJSON(), "1.0.0", version, 1)
			result := v.ValidateBytes([]byte(raw))
			assert.True(t, result.Valid, "version %q should be valid: %v", version, result.Errors)
		}
	})

	t.Run("rejects malformed versions", func(t *testing.T) {
		for _, version := range []string{"1", "v1.0.0", "1.0.0.0", "1.0.x"} {
			raw := strings.Replace(validManifestJSON(), "1.0.0", version, 1)
			result := v.ValidateBytes([]byte(raw))
			assert.False(t, result.Valid, "version %q should be invalid", version)
		}
	})
}

func TestValidator_MainPattern(t *testing.T) {
	v := testValidator(t)

	t.Run("rejects absolute paths", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "index.js", "/etc/evil.js", 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/main")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "relative path")
		assert.Equal(t, `Pattern: ^[^/\\].*\.(js|mjs|cjs)$`, e.Expected)
	})

	t.Run("rejects non-script entry points", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "index.js", "main.exe", 1)
		result := v.ValidateBytes([]byte(raw))
		assert.False(t, result.Valid)
	})

	t.Run("accepts nested relative scripts", func(t *testing.T) {
		for _, main := range []string{"index.js", "dist/main.mjs", "src/entry.cjs"} {
			raw := strings.Replace(validManifestJSON(), "index.js", main, 1)
			result := v.ValidateBytes([]byte(raw))
			assert.True(t, result.Valid, "main %q should be valid: %v", main, result.Errors)
		}
	})
}

func TestValidator_Permissions(t *testing.T) {
	v := testValidator(t)

	withPermissions := func(perms string) string {
		return strings.Replace(validManifestJSON(), `"main": "index.js"`,
			`"main": "index.js", "permissions": `+perms, 1)
	}

	t.Run("rejects duplicate permissions", func(t *testing.T) {
		result := v.ValidateBytes([]byte(withPermissions(`["query:read", "query:read"]`)))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/permissions")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "Duplicate")
	})

	t.Run("rejects unknown permission naming the allowed set", func(t *testing.T) {
		result := v.ValidateBytes([]byte(withPermissions(`["not:a:real:perm"]`)))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/permissions/0")
		require.NotNil(t, e)
		for _, p := range AllPermissions {
			assert.Contains(t, e.Message, string(p))
		}
	})

	t.Run("accepts the full catalog", func(t *testing.T) {
		perms := make([]string, len(AllPermissions))
		for i, p := range AllPermissions {
			perms[i] = `"` + string(p) + `"`
		}
		result := v.ValidateBytes([]byte(withPermissions("[" + strings.Join(perms, ", ") + "]")))

		require.True(t, result.Valid, "errors: %v", result.Errors)
		assert.Len(t, result.Manifest.Permissions, len(AllPermissions))
	})
}

func TestValidator_OptionalFieldConstraints(t *testing.T) {
	v := testValidator(t)

	addField := func(field string) string {
		return strings.Replace(validManifestJSON(), `"main": "index.js"`,
			`"main": "index.js", `+field, 1)
	}

	t.Run("rejects invalid homepage URL", func(t *testing.T) {
		result := v.ValidateBytes([]byte(addField(`"homepage": "not a url"`)))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/homepage")
		require.NotNil(t, e)
		assert.Contains(t, e.Message, "valid URL")
	})

	t.Run("rejects too many keywords", func(t *testing.T) {
		keywords := make([]string, 21)
		for i := range keywords {
			keywords[i] = `"kw` + string(rune('a'+i)) + `"`
		}
		result := v.ValidateBytes([]byte(addField(`"keywords": [` + strings.Join(keywords, ",") + `]`)))
		assert.False(t, result.Valid)
	})

	t.Run("rejects too many screenshots", func(t *testing.T) {
		shots := make([]string, 11)
		for i := range shots {
			shots[i] = `"s.png"`
		}
		result := v.ValidateBytes([]byte(addField(`"screenshots": [` + strings.Join(shots, ",") + `]`)))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/screenshots")
		require.NotNil(t, e)
		assert.Equal(t, "Maximum items: 10", e.Expected)
	})

	t.Run("rejects name over length bound", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "Acme Tool", strings.Repeat("n", 101), 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/name")
		require.NotNil(t, e)
		assert.Equal(t, "Maximum length: 100", e.Expected)
	})

	t.Run("rejects empty description", func(t *testing.T) {
		raw := strings.Replace(validManifestJSON(), "A tool for testing", "", 1)
		result := v.ValidateBytes([]byte(raw))

		require.False(t, result.Valid)
		e := errorAt(result.Errors, "/description")
		require.NotNil(t, e)
		assert.Equal(t, "Minimum length: 1", e.Expected)
	})
}

func TestValidator_RoundTrip(t *testing.T) {
	v := testValidator(t)

	first := v.ValidateBytes([]byte(validManifestJSON()))
	require.True(t, first.Valid)

	// A manifest that passed validation passes again unchanged
	data, err := json.Marshal(first.Manifest)
	require.NoError(t, err)

	second := v.ValidateBytes(data)
	require.True(t, second.Valid, "errors: %v", second.Errors)
	assert.Equal(t, first.Manifest, second.Manifest)
}

func TestValidator_ValidateFile(t *testing.T) {
	v := testValidator(t)

	t.Run("validates a manifest on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ManifestFilename)
		require.NoError(t, os.WriteFile(path, []byte(validManifestJSON()), 0644))

		result, err := v.ValidateFile(path)
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := v.ValidateFile("/nonexistent/plugin.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read manifest file")
	})
}

func TestFormatErrors(t *testing.T) {
	report := FormatErrors([]ValidationError{
		{Path: "/id", Message: "Missing required field: id", Expected: "Field is required"},
		{Path: "/version", Message: "Bad version"},
	})

	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1. Missing required field: id (at /id) - Expected: Field is required", lines[0])
	assert.Equal(t, "2. Bad version (at /version)", lines[1])
}
