package report

// Schema is the JSON Schema (Draft 2020-12) for the sbfl rank JSON
// output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/sbfl/rank-report.schema.json",
  "title": "SBFL Ranking Report",
  "description": "Output schema for sbfl rank --format=json",
  "type": "object",
  "required": ["version", "totals", "rankings", "composite", "summary"],
  "properties": {
    "version": {
      "type": "string",
      "description": "sbfl version that produced the report"
    },
    "totals": { "$ref": "#/$defs/Totals" },
    "rankings": {
      "type": "object",
      "required": ["tarantula", "sbi", "jaccard", "ochiai"],
      "additionalProperties": false,
      "properties": {
        "tarantula": { "$ref": "#/$defs/Ranking" },
        "sbi": { "$ref": "#/$defs/Ranking" },
        "jaccard": { "$ref": "#/$defs/Ranking" },
        "ochiai": { "$ref": "#/$defs/Ranking" }
      }
    },
    "composite": {
      "type": "array",
      "description": "Functions sorted by average score, highest first",
      "items": { "$ref": "#/$defs/CompositeRecord" }
    },
    "summary": { "$ref": "#/$defs/Summary" }
  },
  "$defs": {
    "Score": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "Totals": {
      "type": "object",
      "required": ["total_failed_tests", "total_passed_tests"],
      "properties": {
        "total_failed_tests": { "type": "integer", "minimum": 0 },
        "total_passed_tests": { "type": "integer", "minimum": 0 }
      }
    },
    "Ranking": {
      "type": "array",
      "description": "Functions sorted by one formula's score, highest first",
      "items": { "$ref": "#/$defs/ScoredRecord" }
    },
    "ScoredRecord": {
      "type": "object",
      "required": ["function", "occurrence_count", "failure_count", "success_count", "suspiciousness_score"],
      "properties": {
        "function": { "type": "string" },
        "occurrence_count": { "type": "integer", "minimum": 1 },
        "failure_count": { "type": "integer", "minimum": 0 },
        "success_count": { "type": "integer", "minimum": 0 },
        "suspiciousness_score": { "$ref": "#/$defs/Score" }
      }
    },
    "CompositeRecord": {
      "type": "object",
      "required": [
        "function", "occurrence_count", "failure_count", "success_count",
        "tarantula_score", "sbi_score", "jaccard_score", "ochiai_score",
        "average_score"
      ],
      "properties": {
        "function": { "type": "string" },
        "occurrence_count": { "type": "integer", "minimum": 1 },
        "failure_count": { "type": "integer", "minimum": 0 },
        "success_count": { "type": "integer", "minimum": 0 },
        "tarantula_score": { "$ref": "#/$defs/Score" },
        "sbi_score": { "$ref": "#/$defs/Score" },
        "jaccard_score": { "$ref": "#/$defs/Score" },
        "ochiai_score": { "$ref": "#/$defs/Score" },
        "average_score": { "$ref": "#/$defs/Score" }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["functions", "failed_tests", "passed_tests", "max_scores"],
      "properties": {
        "functions": { "type": "integer", "minimum": 0 },
        "failed_tests": { "type": "integer", "minimum": 0 },
        "passed_tests": { "type": "integer", "minimum": 0 },
        "max_scores": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["formula", "function", "score"],
            "properties": {
              "formula": {
                "type": "string",
                "enum": ["Tarantula", "SBI", "Jaccard", "Ochiai"]
              },
              "function": { "type": "string" },
              "score": { "$ref": "#/$defs/Score" }
            }
          }
        },
        "most_suspicious": { "$ref": "#/$defs/CompositeRecord" }
      }
    }
  }
}`
