// Package alert formats threshold breaches and sends them to a sink at a
// bounded rate.
//
// All notifications of a Dispatcher share one Throttle: the first breach in a
// quiet period is sent immediately, later ones within the same window replace
// each other, and the last one is sent when the window closes. At most one
// message reaches the sink per window. Delivery failures are logged and never
// returned to the caller.
package alert
