package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerStampsDispatchData(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewTextHandler(&buf, nil)})

	ctx := WithDispatchData(context.Background(), &DispatchData{
		CorrelationID: "corr-1",
		Intent:        "pay",
		Transport:     "frame",
	})
	ctx = WithSessionData(ctx, &SessionData{
		Pubkey: "G" + strings.Repeat("A", 55),
		Cached: true,
	})
	log.InfoContext(ctx, "hello")

	out := buf.String()
	for _, want := range []string{
		"dispatch.id=corr-1",
		"dispatch.intent=pay",
		"dispatch.transport=frame",
		"session.pubkey=GAAAA..AAAAA",
		"session.cached=true",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q: %s", want, out)
		}
	}
}

func TestHandlerWithoutContextData(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewTextHandler(&buf, nil)})

	log.Info("plain")
	if strings.Contains(buf.String(), "dispatch") {
		t.Fatalf("unexpected dispatch group: %s", buf.String())
	}
}

func TestAbbrevPubkey(t *testing.T) {
	t.Parallel()
	full := "G" + strings.Repeat("B", 55)
	if got := AbbrevPubkey(full); got != "GBBBB..BBBBB" {
		t.Fatalf("AbbrevPubkey = %q", got)
	}
	if got := AbbrevPubkey("short"); got != "short" {
		t.Fatalf("short input changed: %q", got)
	}
}
