// Package schemas embeds the JSON Schemas used to validate configuration
// files before semantic compilation.
package schemas

import _ "embed"

// BundleSchemaJSON is the JSON Schema for engine configuration bundles.
//
//go:embed bundle.schema.json
var BundleSchemaJSON string
