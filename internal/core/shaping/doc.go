// Package shaping is the data-shaping core of ticket insights: it validates a loaded
// table against the columns an analysis needs, narrows it by a filter selection,
// normalizes date-like cells and computes the grouped aggregates and KPIs a
// dashboard renders.
//
// Every function here is pure. Inputs are never mutated, results are built fresh on
// each call and no state survives between calls, so one table can be shaped from
// many goroutines at once without coordination.
package shaping
