// Package logctx enriches slog records with dispatch-scoped context. The
// dispatcher stamps the context once per call; any log line emitted beneath
// it carries the intent, selected transport, and session attribution without
// threading attrs by hand.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps another slog.Handler and appends context-carried groups.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if dd, ok := ctx.Value(dispatchDataKey{}).(*DispatchData); ok {
		r.AddAttrs(slog.Group("dispatch",
			slog.String("id", dd.CorrelationID),
			slog.String("intent", dd.Intent),
			slog.String("transport", dd.Transport),
		))
	}

	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("session",
			slog.String("pubkey", AbbrevPubkey(sd.Pubkey)),
			slog.Bool("cached", sd.Cached),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type dispatchDataKey struct{}

type DispatchData struct {
	CorrelationID string
	Intent        string
	Transport     string
}

func WithDispatchData(ctx context.Context, data *DispatchData) context.Context {
	return context.WithValue(ctx, dispatchDataKey{}, data)
}

type sessionDataKey struct{}

type SessionData struct {
	Pubkey string
	Cached bool
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}

// AbbrevPubkey shortens an account ID for logs. Full pubkeys are public
// data, but abbreviated keys keep log lines greppable without dominating
// them.
func AbbrevPubkey(pubkey string) string {
	if len(pubkey) <= 10 {
		return pubkey
	}
	return pubkey[:5] + ".." + pubkey[len(pubkey)-5:]
}
