package interfaces

import "context"

// Page is the handle rule checks get to one loaded, stabilized page.
//
// Eval is a serialization boundary: the expression is a self-contained
// program sent into the browser's document context, and only plain data
// comes back. Closures and shared memory do not survive the boundary.
type Page interface {
	// URL returns the normalized URL of the loaded page.
	URL() string

	// HTML returns the rendered document's outer HTML.
	HTML() string

	// Eval runs a JavaScript expression in the page and unmarshals the
	// JSON-serializable result into out.
	Eval(ctx context.Context, expr string, out any) error
}

// Browser is one driver session held for a crawl session's lifetime. Pages
// are navigated strictly sequentially within a session.
type Browser interface {
	// Visit navigates to url, waits for stabilization and returns a Page
	// handle plus visit metadata (status, load time). The returned error is
	// the raw navigation failure; callers classify it into a page error type.
	Visit(ctx context.Context, url string) (Page, VisitMeta, error)

	// Alive reports whether the underlying driver can still be used.
	// Screenshot capture checks this before each attempt since the driver
	// may be torn down concurrently.
	Alive() bool

	// Screenshot captures the element matched by selector on the current
	// page, bounded by its own timeout independent of the page timeout.
	Screenshot(ctx context.Context, selector string) ([]byte, error)

	Close() error
}

// VisitMeta carries the observable outcome of one navigation.
type VisitMeta struct {
	HTTPStatus int
	LoadTimeMs int64
}
