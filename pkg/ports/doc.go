/*
Package ports defines the driven ports (interfaces) of the Railways engine.

These interfaces decouple the conflict engine from the external heuristic
layer and from the transports that expose it.

# Key Interfaces

  - RiskFeed: answers station, segment and agent risk queries with a FeedSample.
  - FeedWriter: seeds a feed; used by tooling and by the contract tests.
  - CycleEngine: the three operations every transport exposes (Evaluate, ApplyReroute, Sync).
*/
package ports
