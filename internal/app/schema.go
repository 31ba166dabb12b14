package app

import (
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

// payloads maps CLI subcommands to the request type they read from stdin.
var payloads = map[string]any{
	"receive":       ReceivePORequest{},
	"resolve":       ResolveInspectionRequest{},
	"correct":       CorrectCostRequest{},
	"add-stock":     AddStockRequest{},
	"bom-add":       BOMLineRequest{},
	"bom-update":    UpdateBOMLineRequest{},
	"variant-costs": VariantCostingRequest{},
	"standard-cost": StandardCostRequest{},
}

// PayloadCommands lists the subcommands that accept a JSON request, sorted.
func PayloadCommands() []string {
	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the JSON schema of the request read by the named subcommand.
func Schema(command string) (*jsonschema.Schema, error) {
	v, ok := payloads[command]
	if !ok {
		return nil, fmt.Errorf("no request payload for command %q", command)
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v), nil
}
