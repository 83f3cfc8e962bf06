package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/taxmitra/compliance-copilot/internal/entity"
)

// BuildInvoiceFieldsSchema returns the JSON-Schema the extraction contract is
// held to. Every field extractor, heuristic or learned, must produce output
// that validates here before it may be persisted; unrecognized shapes are
// rejected at this boundary instead of leaking into rule evaluation.
func BuildInvoiceFieldsSchema() map[string]any {
	numericToken := map[string]any{
		"type":    []string{"number", "string"},
		"pattern": `^\d+(\.\d+)?$`,
	}

	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description":   map[string]any{"type": "string"},
			"hsn_code":      map[string]any{"type": "string"},
			"taxable_value": numericToken,
			"tax_rate":      numericToken,
			"tax_amount":    numericToken,
		},
		"required": []string{"description", "hsn_code", "taxable_value", "tax_rate", "tax_amount"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"invoice_number": map[string]any{"type": []string{"string", "null"}},
			"gstin":          map[string]any{"type": []string{"string", "null"}},
			"date":           map[string]any{"type": []string{"string", "null"}},
			"total_amount":   map[string]any{"type": "string", "pattern": `^\d+(\.\d{1,2})?$`},
			"line_items":     map[string]any{"type": "array", "items": lineItem},
		},
		"required": []string{"total_amount", "line_items"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateFields checks an extraction result against the contract schema.
func ValidateFields(fields entity.InvoiceFields) error {
	if fields.LineItems == nil {
		return fmt.Errorf("line_items must be present (possibly empty)")
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return ValidateJSONAgainstSchema(BuildInvoiceFieldsSchema(), b)
}
