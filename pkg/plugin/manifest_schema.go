package plugin

// ManifestSchema is the JSON Schema for plugin manifest validation.
// additionalProperties is forbidden: an unrecognized field is a
// validation error, not a silently-ignored extra.
const ManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "version", "description", "author", "main"],
  "additionalProperties": false,
  "properties": {
    "id": {
      "type": "string",
      "pattern": "^[a-zA-Z][a-zA-Z0-9._-]*$",
      "description": "Unique plugin identifier"
    },
    "name": {
      "type": "string",
      "minLength": 1,
      "maxLength": 100,
      "description": "Human-readable plugin name"
    },
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+(-[0-9A-Za-z.-]+)?(\\+[0-9A-Za-z.-]+)?$",
      "description": "Semver version, optional pre-release/build suffix"
    },
    "description": {
      "type": "string",
      "minLength": 1,
      "maxLength": 1000,
      "description": "Plugin description"
    },
    "author": {
      "type": "string",
      "minLength": 1,
      "maxLength": 200,
      "description": "Plugin author"
    },
    "main": {
      "type": "string",
      "pattern": "^[^/\\\\].*\\.(js|mjs|cjs)$",
      "description": "Relative entry point script path"
    },
    "permissions": {
      "type": "array",
      "uniqueItems": true,
      "items": {
        "type": "string",
        "enum": [
          "query:read",
          "query:write",
          "ui:menu",
          "ui:panel",
          "ui:command",
          "storage:read",
          "storage:write",
          "connection:info"
        ]
      }
    },
    "engines": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "sqlpro": {
          "type": "string",
          "description": "Compatible host version range"
        }
      }
    },
    "homepage": {
      "type": "string",
      "format": "uri",
      "description": "Plugin homepage URL"
    },
    "repository": {
      "type": "string"
    },
    "license": {
      "type": "string"
    },
    "keywords": {
      "type": "array",
      "maxItems": 20,
      "items": {
        "type": "string",
        "minLength": 1,
        "maxLength": 50
      }
    },
    "icon": {
      "type": "string"
    },
    "screenshots": {
      "type": "array",
      "maxItems": 10,
      "items": { "type": "string" }
    },
    "apiVersion": {
      "type": "string"
    }
  }
}`
