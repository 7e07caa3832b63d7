// Package rankings computes the driving-safety ranking map: which cities are
// ranked for a year and ranking type, in what draw order, which of them form
// the top-ten series, and the detail shown for a selected city.
//
// All computation is pure over a []City dataset. Service adds caching and
// readiness on top.
package rankings
