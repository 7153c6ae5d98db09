package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/dom"
)

func fastWaiter(maxPolls int) *Waiter {
	cfg := config.Default()
	cfg.Readiness.PollInterval = 5 * time.Millisecond
	cfg.Readiness.SettleDelay = time.Millisecond
	cfg.Readiness.MaxPolls = maxPolls
	return NewWaiter(cfg)
}

func TestAwaitPageReady_Immediate(t *testing.T) {
	doc := dom.MustParseHTML(`<form><textarea></textarea></form>`, "")
	require.NoError(t, fastWaiter(3).AwaitPageReady(context.Background(), doc))
}

func TestAwaitPageReady_LateContent(t *testing.T) {
	doc := dom.MustParseHTML(`<html><body><div id="root"></div></body></html>`, "")
	doc.SetReadyState(dom.ReadyStateLoading)

	go func() {
		time.Sleep(15 * time.Millisecond)
		doc.SetReadyState(dom.ReadyStateComplete)
		doc.Append("#root", `<textarea class="inner-textarea"></textarea>`)
	}()

	require.NoError(t, fastWaiter(200).AwaitPageReady(context.Background(), doc))
}

func TestAwaitPageReady_GivesUp(t *testing.T) {
	doc := dom.MustParseHTML(`<div>static page</div>`, "")
	err := fastWaiter(3).AwaitPageReady(context.Background(), doc)
	assert.ErrorIs(t, err, ErrPageNotReady)
}

func TestAwaitPageReady_Cancelled(t *testing.T) {
	doc := dom.MustParseHTML(`<div>static page</div>`, "")
	w := fastWaiter(1000)
	w.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.AwaitPageReady(ctx, doc), context.Canceled)
}

func TestReady_RequiresLoadedState(t *testing.T) {
	doc := dom.MustParseHTML(`<input>`, "")
	doc.SetReadyState(dom.ReadyStateLoading)
	assert.False(t, fastWaiter(1).Ready(doc))
}
