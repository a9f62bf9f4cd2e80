package intents

import "sync"

var (
	builtinOnce sync.Once
	builtin     *Registry
)

// Builtin returns the default intent table, reflected from the typed
// parameter structs in this package. The table is built once and shared;
// it is read-only.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = MustFromParams(map[string]any{
			IntentPublicKey:     PublicKeyParams{},
			IntentSign:          SignParams{},
			IntentPay:           PayParams{},
			IntentTrust:         TrustParams{},
			IntentSignMessage:   SignMessageParams{},
			IntentManageAccount: ManageAccountParams{},
			IntentImplicitFlow:  ImplicitFlowParams{},
		})
	})
	return builtin
}
