package state

// structureSchema validates the persisted migration tree before the
// orchestrator trusts it. Hand-edited or truncated state files fail loudly at
// load time instead of resuming from a half-readable snapshot.
const structureSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": {"$ref": "#/$defs/unit"},
  "$defs": {
    "unit": {
      "type": "object",
      "required": ["type", "path"],
      "properties": {
        "type": {"enum": ["channel", "page"]},
        "private": {"type": "boolean"},
        "space_key": {"type": "string"},
        "space_id": {"type": "string"},
        "space_created": {"type": "boolean"},
        "titles_deduped": {"type": "boolean"},
        "parent": {"type": "string"},
        "parent_id": {"type": "string"},
        "path": {"type": "string"},
        "page_id": {"type": "string"},
        "uploaded": {"type": "boolean"},
        "media_uploaded": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["uploaded"],
            "properties": {
              "uploaded": {"type": "boolean"},
              "error": {"type": "string"}
            }
          }
        },
        "media_links_fixed": {"type": "boolean"},
        "links_fixed": {"type": "boolean"},
        "children": {
          "type": "object",
          "additionalProperties": {"$ref": "#/$defs/unit"}
        }
      }
    }
  }
}`
