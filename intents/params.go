package intents

// Typed parameter sets for the builtin intents. The json tags name the wire
// parameters; jsonschema tags mark the ones the confirmation surface insists
// on. The builtin registry table is reflected from these types.

// PublicKeyParams requests the account's public key. The token is a fresh
// client-side random value giving the response replay protection.
type PublicKeyParams struct {
	Token string `json:"token" jsonschema:"required,description=Single-use random token echoed by the surface"`
}

// SignParams requests a signature over a transaction envelope.
type SignParams struct {
	XDR      string `json:"xdr" jsonschema:"required,description=Base64 transaction envelope to sign"`
	Pubkey   string `json:"pubkey,omitempty"`
	Network  string `json:"network,omitempty"`
	Submit   bool   `json:"submit,omitempty" jsonschema:"description=Ask the surface to also submit the signed transaction"`
	Callback string `json:"callback,omitempty"`
}

// PayParams requests a payment confirmation.
type PayParams struct {
	Destination string `json:"destination" jsonschema:"required"`
	Amount      string `json:"amount" jsonschema:"required"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
	Memo        string `json:"memo,omitempty"`
	MemoType    string `json:"memo_type,omitempty"`
	Pubkey      string `json:"pubkey,omitempty"`
	Network     string `json:"network,omitempty"`
	Callback    string `json:"callback,omitempty"`
}

// TrustParams requests a trustline change confirmation.
type TrustParams struct {
	AssetCode   string `json:"asset_code" jsonschema:"required"`
	AssetIssuer string `json:"asset_issuer" jsonschema:"required"`
	Limit       string `json:"limit,omitempty"`
	Pubkey      string `json:"pubkey,omitempty"`
	Network     string `json:"network,omitempty"`
}

// SignMessageParams requests a signature over an arbitrary message.
type SignMessageParams struct {
	Message string `json:"message" jsonschema:"required"`
	Pubkey  string `json:"pubkey,omitempty"`
}

// ManageAccountParams opens the account-management view on the surface.
type ManageAccountParams struct {
	Pubkey string `json:"pubkey" jsonschema:"required"`
}

// ImplicitFlowParams asks the user to grant a standing permission covering
// the listed intents.
type ImplicitFlowParams struct {
	Intents []string `json:"intents" jsonschema:"required,description=Intent names the standing permission should cover"`
	Pubkey  string   `json:"pubkey,omitempty"`
}
