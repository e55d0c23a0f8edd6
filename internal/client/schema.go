package client

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// orderTreeSchema describes the structure of a reorder response. Tag
// values are left to tree.Reorder, which reports unknown ones.
const orderTreeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "type": {"type": "string"},
    "root": {
      "oneOf": [{"type": "null"}, {"$ref": "#/$defs/node"}]
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string"},
        "id": {"type": "string"},
        "testName": {"type": "string"},
        "children": {
          "type": "array",
          "items": {"$ref": "#/$defs/node"}
        }
      }
    }
  }
}`

const orderTreeSchemaURL = "order_tree.json"

var orderTree = jsonschema.MustCompileString(orderTreeSchemaURL, orderTreeSchema)

func validateOrderTree(raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return orderTree.Validate(payload)
}
