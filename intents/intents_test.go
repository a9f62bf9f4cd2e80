package intents

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinTable(t *testing.T) {
	t.Parallel()
	reg := Builtin()

	cases := []struct {
		intent   string
		required []string
		optional []string
	}{
		{IntentPublicKey, []string{"token"}, nil},
		{IntentSign, []string{"xdr"}, []string{"pubkey", "network", "submit", "callback"}},
		{IntentPay, []string{"destination", "amount"}, []string{"asset_code", "asset_issuer", "memo", "memo_type", "pubkey", "network", "callback"}},
		{IntentTrust, []string{"asset_code", "asset_issuer"}, []string{"limit", "pubkey", "network"}},
		{IntentSignMessage, []string{"message"}, []string{"pubkey"}},
		{IntentManageAccount, []string{"pubkey"}, nil},
		{IntentImplicitFlow, []string{"intents"}, []string{"pubkey"}},
	}

	for _, tc := range cases {
		desc, ok := reg.Lookup(tc.intent)
		if !ok {
			t.Fatalf("builtin table missing %s", tc.intent)
		}
		if got, want := len(desc.Params), len(tc.required)+len(tc.optional); got != want {
			t.Fatalf("%s declares %d params, want %d (%v)", tc.intent, got, want, desc.ParamNames())
		}
		for _, name := range tc.required {
			p, ok := desc.Params[name]
			if !ok || !p.Required {
				t.Fatalf("%s param %s should be required (have %+v)", tc.intent, name, desc.Params)
			}
		}
		for _, name := range tc.optional {
			p, ok := desc.Params[name]
			if !ok || p.Required {
				t.Fatalf("%s param %s should be optional (have %+v)", tc.intent, name, desc.Params)
			}
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	t.Parallel()
	if _, ok := Builtin().Lookup("mint_money"); ok {
		t.Fatal("Lookup returned a descriptor for an unknown intent")
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	t.Parallel()
	_, err := New(
		&Descriptor{Name: "sign"},
		&Descriptor{Name: "sign"},
	)
	if err == nil {
		t.Fatal("duplicate descriptors accepted")
	}
}

func TestLoadTOML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "intents.toml")
	table := `
[intents.sign.params.xdr]
required = true

[intents.sign.params.network]
required = false

[intents.pay.params.destination]
required = true

[intents.pay.params.amount]
required = true

[intents.pay.params.memo]
required = false
`
	if err := os.WriteFile(path, []byte(table), 0o600); err != nil {
		t.Fatalf("write table: %v", err)
	}

	reg, err := LoadTOML(path)
	if err != nil {
		t.Fatalf("LoadTOML: %v", err)
	}

	sign, ok := reg.Lookup("sign")
	if !ok {
		t.Fatal("loaded table missing sign")
	}
	if !sign.Params["xdr"].Required || sign.Params["network"].Required {
		t.Fatalf("sign flags wrong: %+v", sign.Params)
	}

	// Loaded flags agree with the reflected builtin table for shared
	// parameters.
	builtinSign, _ := Builtin().Lookup(IntentSign)
	for name, p := range sign.Params {
		if bp, ok := builtinSign.Params[name]; ok && bp.Required != p.Required {
			t.Fatalf("param %s: loaded required=%v, builtin required=%v", name, p.Required, bp.Required)
		}
	}
}

func TestLoadTOMLEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write table: %v", err)
	}
	if _, err := LoadTOML(path); err == nil {
		t.Fatal("empty table accepted")
	}
}

func TestSchemaJSON(t *testing.T) {
	t.Parallel()

	t.Run("Reflected", func(t *testing.T) {
		raw, err := Builtin().SchemaJSON(IntentPay)
		if err != nil {
			t.Fatalf("SchemaJSON: %v", err)
		}
		var schema struct {
			Properties map[string]json.RawMessage `json:"properties"`
			Required   []string                   `json:"required"`
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("schema not valid JSON: %v", err)
		}
		if _, ok := schema.Properties["destination"]; !ok {
			t.Fatalf("schema missing destination: %s", raw)
		}
		found := false
		for _, r := range schema.Required {
			if r == "amount" {
				found = true
			}
		}
		if !found {
			t.Fatalf("schema does not require amount: %s", raw)
		}
	})

	t.Run("Synthesized", func(t *testing.T) {
		reg, err := New(&Descriptor{
			Name:   "custom",
			Params: map[string]Param{"a": {Required: true}, "b": {}},
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		raw, err := reg.SchemaJSON("custom")
		if err != nil {
			t.Fatalf("SchemaJSON: %v", err)
		}
		var schema struct {
			Type     string   `json:"type"`
			Required []string `json:"required"`
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("schema not valid JSON: %v", err)
		}
		if schema.Type != "object" || len(schema.Required) != 1 || schema.Required[0] != "a" {
			t.Fatalf("synthesized schema wrong: %s", raw)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := Builtin().SchemaJSON("mint_money"); err == nil {
			t.Fatal("unknown intent produced a schema")
		}
	})
}
