package rubric

// documentSchema is the structural contract for a rubric document.
// Unknown fields are allowed (and ignored by the typed decode); known
// sections must have the right shape so shape errors surface at load
// with field paths instead of as zero values inside the evaluator.
const documentSchema = `{
  "type": "object",
  "properties": {
    "user_additions":     {"type": "array", "items": {"type": "string"}},
    "authorized_users":   {"type": "array", "items": {"type": "string"}},
    "unauthorized_users": {"type": "array", "items": {"type": "string"}},
    "device_restrictions": {
      "type": "object",
      "properties": {
        "screen_capture_disabled": {"type": "boolean"},
        "network_logging_enabled": {"type": "boolean"}
      }
    },
    "user_restrictions": {
      "type": "object",
      "properties": {
        "no_config_wifi":     {"type": "boolean"},
        "disallow_debugging": {"type": "boolean"},
        "no_printing":        {"type": "boolean"}
      }
    },
    "password_policies": {
      "type": "object",
      "properties": {
        "quality_names":      {"type": "array", "items": {"type": "string"}},
        "expiration_timeout": {"type": "integer"}
      }
    },
    "additional_restrictions": {
      "type": "object",
      "properties": {
        "disallow_factory_reset": {"type": "boolean"}
      }
    },
    "system_update_policy": {
      "type": "object",
      "properties": {
        "policy_type_name": {"type": "string"}
      },
      "required": ["policy_type_name"]
    },
    "settings_secure": {"type": "object", "additionalProperties": {"type": "integer"}},
    "settings_system": {"type": "object", "additionalProperties": {"type": "integer"}},
    "settings_global": {"type": "object", "additionalProperties": {"type": "integer"}},
    "file_deletions": {"type": "array", "items": {"type": "string"}},
    "app_deletions":  {"type": "array", "items": {"type": "string"}},
    "app_installs":   {"type": "array", "items": {"type": "string"}},
    "app_updates":    {"type": "object", "additionalProperties": {"type": "string"}},
    "forensics_questions": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "prompt": {"type": "string"},
          "answer": {"type": "string"}
        },
        "required": ["prompt", "answer"]
      }
    },
    "points": {
      "type": "object",
      "properties": {
        "policy_points":        {"type": "integer"},
        "settings_points":      {"type": "integer"},
        "file_deletion_points": {"type": "integer"},
        "app_install_points":   {"type": "integer"},
        "app_deletion_points":  {"type": "integer"},
        "update_points":        {"type": "integer"},
        "user_points":          {"type": "integer"},
        "user_penalty":         {"type": "integer"},
        "app_penalty":          {"type": "integer"},
        "forensics_points":     {"type": "integer"}
      }
    }
  },
  "required": ["points"]
}`
