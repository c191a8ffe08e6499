// internal/stages/validate/models.go
package validate

// submissionSchema is the structural contract for incoming diagnosis
// submissions. Semantic rules that JSON Schema cannot express (score
// bounds interplay with weights, framework coverage) are checked in code.
const submissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["companyInfo", "responses"],
  "properties": {
    "companyInfo": {
      "type": "object",
      "required": ["name", "contactEmail"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "contactEmail": {"type": "string", "format": "email"},
        "industry": {"type": "string"},
        "sizeTier": {"type": "string", "enum": ["", "small", "medium", "large", "enterprise"]}
      }
    },
    "responses": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["questionId", "score", "categoryId"],
        "properties": {
          "questionId": {"type": "string", "minLength": 1},
          "score": {"type": "integer", "minimum": 1, "maximum": 5},
          "categoryId": {"type": "string", "minLength": 1},
          "weight": {"type": "number", "minimum": 0},
          "confidence": {"type": "integer", "minimum": 1, "maximum": 5}
        }
      }
    }
  }
}`
