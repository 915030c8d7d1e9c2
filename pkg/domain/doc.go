/*
Package domain contains the core models of the Railways conflict engine.

It defines the network snapshot (stations and undirected track edges), the
agent roster, the risk feed result type and the decisions produced by an
evaluation cycle. The package is free of I/O so every other layer can
depend on it.

# Key Entities

  - NetworkSnapshot: stations keyed by identifier plus the list of edges.
  - Agent: a train moving along a path with progress, speed and priority.
  - FeedSample: a fixed-shape answer from the external risk feed, with an
    explicit unavailable variant.
  - Decision: the outcome of one cycle (NORMAL, REQUEST_CONFIRMATION,
    EMERGENCY_STOP or STOP_BOTH).
*/
package domain
