package browser

import (
	"context"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// netTracker counts in-flight requests and captures the main document's HTTP
// status from CDP network events. It must be attached before navigation or
// the document request itself is missed.
type netTracker struct {
	inflight int32
	status   int32
}

// trackNetwork attaches a listener to ctx. The listener detaches when ctx is
// canceled.
func trackNetwork(ctx context.Context) *netTracker {
	t := &netTracker{}
	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&t.inflight, 1)
		case *network.EventLoadingFinished:
			atomic.AddInt32(&t.inflight, -1)
		case *network.EventLoadingFailed:
			atomic.AddInt32(&t.inflight, -1)
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument {
				atomic.CompareAndSwapInt32(&t.status, 0, int32(e.Response.Status))
			}
		}
	})
	return t
}

func (t *netTracker) InFlight() int {
	n := atomic.LoadInt32(&t.inflight)
	if n < 0 {
		return 0
	}
	return int(n)
}

func (t *netTracker) Status() int {
	return int(atomic.LoadInt32(&t.status))
}
