// Package pagination follows Canvas Link-header pagination.
//
// Canvas returns one page per response and advertises the following page in
// the Link header (rel="next"). The URL of page N+1 is only known once page N
// has arrived, so a run is strictly sequential: one request in flight, pages
// handed out in server order.
//
// A Paginator owns the page-following loop. Two consumers sit on top of it:
//
//	// Accumulator: all pages, all-or-nothing.
//	courses, err := pagination.Collect(ctx, p, pagination.JSON[Course](pagination.BareArray))
//
//	// StreamProducer: one page buffered at a time, stops when the loop exits.
//	for c, err := range pagination.Stream(ctx, p, pagination.JSON[Course](pagination.BareArray)) {
//		if err != nil {
//			return err
//		}
//		if done(c) {
//			break // no further page is requested
//		}
//	}
//
// Some endpoints wrap the page array in a single-property object
// ({"grading_periods": [...]}); select SingleKey("grading_periods") instead
// of BareArray for those.
//
// A missing or unparsable Link header ends the run as if the last page had
// been reached. WithStrictLinks turns an unparsable header into an error.
package pagination
