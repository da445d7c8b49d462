package enums

import "fmt"

// SchemaVariant distinguishes the two cart storage layouts the commerce
// engine has shipped. Resolved once at startup by probing the engine and
// threaded through constructors; never re-probed per call.
type SchemaVariant string

const (
	// SchemaLegacy stores carts as (possibly compressed) PHP-serialized
	// blobs with relational customer columns.
	SchemaLegacy SchemaVariant = "legacy"
	// SchemaModern stores carts as (possibly compressed) JSON documents
	// with an embedded customer object.
	SchemaModern SchemaVariant = "modern"
)

var validSchemaVariants = []SchemaVariant{SchemaLegacy, SchemaModern}

// IsValid reports whether the value is a known schema variant.
func (s SchemaVariant) IsValid() bool {
	for _, candidate := range validSchemaVariants {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSchemaVariant converts raw input into SchemaVariant.
func ParseSchemaVariant(value string) (SchemaVariant, error) {
	for _, candidate := range validSchemaVariants {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid schema variant %q", value)
}
