// Package lob reconstructs a limit order book from a chronologically
// ordered but locally out-of-order event stream, by deduction rather than
// matching: every event adjusts the net resting quantity at an order id, it
// never crosses a spread to produce a fill. A deferred queue absorbs the
// handful of event orderings the book cannot resolve immediately (a
// cancel or taker arriving before its counterpart maker, a call-auction
// maker whose reported price is still provisional, a maker or cancel that
// omits its price).
package lob
