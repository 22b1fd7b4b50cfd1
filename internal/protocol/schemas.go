package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	"envelope":      "envelope.schema.json",
	TypeFind:        "find.schema.json",
	TypeFindByID:    "findbyid.schema.json",
	TypeMarketPrice: "marketprice.schema.json",
	TypeAddOffer:    "add.schema.json",
	TypeRemoveOffer: "remove.schema.json",
	TypeExtendOffer: "extend.schema.json",
	TypeOfferFees:   "offerfees.schema.json",
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	for _, file := range schemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + file)
		if err != nil {
			compileErr = err
			return
		}
		if err := c.AddResource(file, bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("%s: %w", file, err)
			return
		}
	}
	compiled = make(map[string]*jsonschema.Schema, len(schemaFiles))
	for name, file := range schemaFiles {
		s, err := c.Compile(file)
		if err != nil {
			compileErr = fmt.Errorf("%s: %w", file, err)
			return
		}
		compiled[name] = s
	}
}

// ValidateEnvelope checks a raw websocket frame.
func ValidateEnvelope(raw []byte) error {
	return validate("envelope", raw)
}

// ValidateBody checks a request body against the schema registered for msgType.
// Types without a schema (TypePrices) accept any body.
func ValidateBody(msgType string, raw []byte) error {
	return validate(msgType, raw)
}

func validate(name string, raw []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	s, ok := compiled[name]
	if !ok {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
