// Package bridge relays analytics events posted by the ripple SDK onto a
// message broker subject, keeps a bounded window of recent events for
// inspection and streams accepted events to live viewers over websockets.
package bridge
