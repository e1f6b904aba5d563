package config

// definitionSchema is the JSON schema every ogsetup.yaml must satisfy.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "splunkd": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "url": {"type": "string", "pattern": "^https?://"},
        "owner": {"type": "string", "minLength": 1},
        "app": {"type": "string", "pattern": "^[A-Za-z0-9_.-]+$"},
        "token": {"type": "string"},
        "username": {"type": "string"},
        "insecure_skip_verify": {"type": "boolean"},
        "timeout_ms": {"type": "integer", "minimum": 0}
      }
    },
    "setup": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "credential_username": {"type": "string", "minLength": 1},
        "conf_file": {"type": "string", "pattern": "^[A-Za-z0-9_.-]+$"},
        "stanza": {"type": "string", "minLength": 1},
        "property": {"type": "string", "minLength": 1}
      }
    },
    "opsgenie": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "endpoints": {
          "type": "object",
          "propertyNames": {"enum": ["us", "eu"]},
          "additionalProperties": {"type": "string", "pattern": "^https?://"}
        }
      }
    },
    "serve": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "addr": {"type": "string", "minLength": 1}
      }
    }
  }
}`
