/*
Package pool implements the hot-window pools: per-category queues of
pre-warmed, content-loaded windows ready for parameter hand-off.

Replenishment runs as a single background pass:

 1. Bursts of Register/Checkout calls are debounced into one pass.
 2. Per-category deficits (target minus warm minus in-flight) are
    computed.
 3. The backlog interleaves breadth-first across categories: every
    category gets its first warm handle before any category gets a
    second.
 4. The backlog drains strictly one item at a time; the next
    construction does not begin until the previous handle signals
    content loaded. Window construction is resource-intensive and
    concurrent construction degrades foreground responsiveness.

UnregisterAll is the only cancellation primitive: it discards the
backlog, force-destroys every pooled handle, and invalidates in-flight
constructions via a generation counter. Prompt teardown wins over
graceful shutdown here so the process can exit on teardown-sensitive
platforms.
*/
package pool
