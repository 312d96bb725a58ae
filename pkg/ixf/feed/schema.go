package feed

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema reflects the Document type into a JSON Schema describing the
// subset of the IX-F member-list format this importer understands, for
// documentation and tooling. Validate below does not consult it.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Document{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "IX-F Member List (importer subset)"
	return schema
}

// Validate does a cheap structural pre-check of raw for the two top-level
// fields Document marks required (version, member_list), before the more
// expensive field-by-field walk in package parse runs; nested required
// fields such as a member's asnum are not checked. It is intentionally shallow: anything
// invopop/jsonschema can't express at runtime (conditional requirements,
// per-row invariants) is left to parse.Parser, which logs and skips
// individual bad rows rather than aborting the document.
func Validate(raw []byte) error {
	var probe struct {
		Version    *string          `json:"version"`
		MemberList *json.RawMessage `json:"member_list"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	if probe.Version == nil {
		return fmt.Errorf("document missing required field %q", "version")
	}
	if probe.MemberList == nil {
		return fmt.Errorf("document missing required field %q", "member_list")
	}
	return nil
}
