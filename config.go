package intentbridge

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/lumenbridge/intent-bridge-go/intents"
	"github.com/lumenbridge/intent-bridge-go/sessions"
	"github.com/lumenbridge/intent-bridge-go/sessions/filestore"
	"github.com/lumenbridge/intent-bridge-go/sessions/memorystore"
	"github.com/lumenbridge/intent-bridge-go/sessions/redisstore"
	"github.com/lumenbridge/intent-bridge-go/transport"
)

// Config selects the session backend and tuning knobs from the
// environment. Defaults come from the struct tags.
type Config struct {
	// SessionStore is one of "memory", "file", "redis".
	// ENV: BRIDGE_SESSION_STORE
	SessionStore string `env:"BRIDGE_SESSION_STORE,default=memory"`

	// SessionFile is the cache path for the file backend.
	// ENV: BRIDGE_SESSION_FILE
	SessionFile string `env:"BRIDGE_SESSION_FILE,default=intent-bridge-sessions.json"`

	// IntentTable optionally replaces the builtin intent table with a
	// TOML file. ENV: BRIDGE_INTENT_TABLE
	IntentTable string `env:"BRIDGE_INTENT_TABLE,default="`

	// PromptRPS enables the interactive prompt throttle when positive.
	// ENV: BRIDGE_PROMPT_RPS
	PromptRPS float64 `env:"BRIDGE_PROMPT_RPS,default=0"`

	// PromptBurst is the throttle burst. ENV: BRIDGE_PROMPT_BURST
	PromptBurst int `env:"BRIDGE_PROMPT_BURST,default=1"`
}

// NewFromEnv builds a Client configured from the environment. The redis
// backend additionally reads REDIS_ADDR via its own config.
func NewFromEnv(provider transport.Provider, opts ...Option) (*Client, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.IntentTable != "" {
		reg, err := intents.LoadTOML(cfg.IntentTable)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append([]Option{WithRegistry(reg)}, opts...)
	}
	if cfg.PromptRPS > 0 {
		opts = append(opts, WithPromptLimit(cfg.PromptRPS, cfg.PromptBurst))
	}

	return New(provider, store, opts...), nil
}

func openStore(cfg Config) (sessions.Store, error) {
	switch cfg.SessionStore {
	case "", "memory":
		return memorystore.New(), nil
	case "file":
		return filestore.New(cfg.SessionFile)
	case "redis":
		return redisstore.NewFromEnv()
	default:
		return nil, fmt.Errorf("unknown session store %q (want memory, file, or redis)", cfg.SessionStore)
	}
}
