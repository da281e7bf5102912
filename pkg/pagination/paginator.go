package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/canvas-client/pkg/linkheader"
	"github.com/Sternrassler/canvas-client/pkg/logging"
	"github.com/Sternrassler/canvas-client/pkg/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the position of a Paginator in its run.
type State int

const (
	// StateFetching means the first page has not been handed out yet.
	StateFetching State = iota

	// StateHasNext means the last page carried a usable next link.
	StateHasNext

	// StateExhausted means no further page will be fetched.
	StateExhausted
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateHasNext:
		return "has_next"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Page is one response in a pagination run.
type Page struct {
	// Index is the 1-based position of the page in the run.
	Index    int
	URL      string
	Response *transport.Response
	Links    linkheader.Relations
}

// Body returns the raw page body.
func (p *Page) Body() []byte {
	if p == nil || p.Response == nil {
		return nil
	}
	return p.Response.Body
}

// Paginator walks a Link-paginated collection one page at a time.
// A Paginator belongs to a single run and is not safe for concurrent use.
type Paginator struct {
	transport transport.Transport
	state     State
	next      string
	pending   *transport.Response
	fetched   int

	maxPages int
	strict   bool

	runID   string
	started time.Time
	logger  zerolog.Logger
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Paginator) {
		p.logger = logger
	}
}

// WithMaxPages stops the run after n pages, as if the nth page were the last.
// Zero or less means no limit.
func WithMaxPages(n int) Option {
	return func(p *Paginator) {
		p.maxPages = n
	}
}

// WithStrictLinks makes an unparsable Link header fail the run with
// ErrMalformedLink instead of ending it quietly.
func WithStrictLinks() Option {
	return func(p *Paginator) {
		p.strict = true
	}
}

// New returns a Paginator whose first page has already been fetched by the
// caller. The first Advance validates and returns first without a request.
func New(t transport.Transport, firstURL string, first *transport.Response, opts ...Option) *Paginator {
	p := newPaginator(t, firstURL, opts)
	p.pending = first
	return p
}

// FromURL returns a Paginator that fetches firstURL on the first Advance.
func FromURL(t transport.Transport, firstURL string, opts ...Option) *Paginator {
	return newPaginator(t, firstURL, opts)
}

func newPaginator(t transport.Transport, firstURL string, opts []Option) *Paginator {
	p := &Paginator{
		transport: t,
		state:     StateFetching,
		next:      firstURL,
		runID:     uuid.NewString(),
		started:   time.Now(),
		logger:    logging.NewLogger("paginator"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.ForRun(p.logger, p.runID)
	return p
}

// State returns the current state.
func (p *Paginator) State() State {
	return p.state
}

// Pages returns how many pages have been handed out.
func (p *Paginator) Pages() int {
	return p.fetched
}

// RunID identifies this run in logs.
func (p *Paginator) RunID() string {
	return p.runID
}

// Advance returns the next page. It returns ErrExhausted after the last page,
// the context error if ctx is done, a *transport.Error if the request failed
// or the server answered with a non-success status. Any error other than
// ErrExhausted ends the run.
func (p *Paginator) Advance(ctx context.Context) (*Page, error) {
	if p.state == StateExhausted {
		return nil, ErrExhausted
	}
	if err := ctx.Err(); err != nil {
		p.finish(outcomeCanceled)
		return nil, err
	}

	pageURL := p.next
	resp := p.pending
	p.pending = nil

	if resp == nil {
		p.logger.Debug().
			Int("page", p.fetched+1).
			Str("url", pageURL).
			Msg("Fetching page")

		var err error
		resp, err = p.transport.Issue(ctx, http.MethodGet, pageURL, nil)
		if err == nil && resp == nil {
			err = errNoResponse
		}
		if err != nil {
			return nil, p.fail(ctx, pageURL, err)
		}
	}
	if resp.URL == "" {
		resp.URL = pageURL
	}

	if !resp.OK() {
		err := transport.StatusError(http.MethodGet, resp)
		p.logger.Warn().
			Int("page", p.fetched+1).
			Int("status", resp.StatusCode).
			Str("error_class", string(err.Class)).
			Msg("Page request failed, stopping run")
		p.finish(outcomeError)
		return nil, err
	}

	p.fetched++
	pagesFetchedTotal.Inc()

	page := &Page{Index: p.fetched, URL: pageURL, Response: resp}

	links, parseErr := linkheader.ParseStrict(resp.Links()...)
	page.Links = links
	if parseErr != nil {
		if p.strict {
			p.finish(outcomeError)
			return nil, fmt.Errorf("%w on page %d: %v", ErrMalformedLink, page.Index, parseErr)
		}
		p.logger.Warn().
			Err(parseErr).
			Int("page", page.Index).
			Msg("Link header partly unparsable")
	}

	next, ok := p.nextURL(pageURL, links)
	switch {
	case !ok:
		p.finish(outcomeComplete)
	case p.maxPages > 0 && p.fetched >= p.maxPages:
		p.logger.Info().
			Int("max_pages", p.maxPages).
			Msg("Page limit reached, stopping run")
		p.finish(outcomeTruncated)
	default:
		p.state = StateHasNext
		p.next = next
	}

	return page, nil
}

// Stop ends the run early. Later Advance calls return ErrExhausted without
// issuing requests.
func (p *Paginator) Stop() {
	p.abort(outcomeAbandoned)
}

func (p *Paginator) abort(outcome string) {
	if p.state != StateExhausted {
		p.finish(outcome)
	}
}

// nextURL resolves the next relation against the page it came from.
func (p *Paginator) nextURL(pageURL string, links linkheader.Relations) (string, bool) {
	ref, ok := links.Next()
	if !ok {
		return "", false
	}

	target, err := url.Parse(ref)
	if err != nil {
		p.logger.Warn().Err(err).Str("next", ref).Msg("Unparsable next link, treating page as last")
		return "", false
	}
	if target.IsAbs() {
		return ref, true
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		p.logger.Warn().Err(err).Str("next", ref).Msg("Cannot resolve relative next link, treating page as last")
		return "", false
	}
	return base.ResolveReference(target).String(), true
}

// fail normalizes a transport failure and ends the run.
func (p *Paginator) fail(ctx context.Context, pageURL string, err error) error {
	if ctx.Err() != nil {
		p.finish(outcomeCanceled)
		return fmt.Errorf("fetch page %d: %w", p.fetched+1, err)
	}

	var te *transport.Error
	if !errors.As(err, &te) {
		err = &transport.Error{
			Method:  http.MethodGet,
			URL:     pageURL,
			Class:   transport.ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	p.logger.Warn().Err(err).Int("page", p.fetched+1).Msg("Page request failed, stopping run")
	p.finish(outcomeError)
	return fmt.Errorf("fetch page %d: %w", p.fetched+1, err)
}

func (p *Paginator) finish(outcome string) {
	p.state = StateExhausted
	p.next = ""
	p.pending = nil

	paginationRunsTotal.WithLabelValues(outcome).Inc()
	paginationRunPages.Observe(float64(p.fetched))

	p.logger.Debug().
		Str("outcome", outcome).
		Int("pages", p.fetched).
		Dur("duration", time.Since(p.started)).
		Msg("Pagination run finished")
}
