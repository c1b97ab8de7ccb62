/*
Package query caches the resources read from the host bridge.

Each key (browsers, settings, settings-path) has its own freshness window,
collection window and retry policy. Reads of a fresh key never reach the
bridge; concurrent fetches of one key collapse into a single call; a
failed fetch is retried a fixed number of times before the error is
published. Listeners see every key move through loading and then success
or error.

Invalidate starts a new generation. A fetch started after an invalidation
never joins a flight from before it, so a mutation that saves and then
invalidates always reads back its own write.
*/
package query
