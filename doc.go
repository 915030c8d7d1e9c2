/*
Package railways is a conflict-detection and rerouting engine for train networks.

Each evaluation cycle takes a station graph and a roster of trains, predicts
every train a few seconds ahead along its path, scores every pair for
collision risk and turns the worst pair into a decision: carry on, reroute
the lower-priority train around the edge it occupies, or stop.

# Concept

The engine owns a small amount of state shared across cycles: the last
synced graph, the set of edges blocked by earlier reroutes, a per-train risk
cache and the trains produced by the optional synthetic spawner. Callers
hold that state through an Engine value; nothing is global.

Risk combines a kinematic score (proximity, time to collision, braking
distance) with an optional external risk feed (see pkg/ports.RiskFeed). A
feed that cannot answer degrades the score to its kinematic part instead of
failing the cycle.

# Usage

	eng, err := railways.New(railways.WithGraph(network.DefaultSnapshot()))
	if err != nil {
		log.Fatal(err)
	}

	decision, err := eng.Evaluate(ctx, domain.NetworkSnapshot{}, []domain.Agent{
		{ID: "T1", Path: []string{"A", "B", "D"}, Speed: 110, Priority: domain.IntPtr(2)},
		{ID: "T2", Path: []string{"D", "B", "A"}, Speed: 90},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(decision.Action, decision.SuggestedPath)

The same operations are exposed over HTTP (pkg/adapters/http) and as MCP
tools (pkg/adapters/mcp); cmd/railways bundles both.
*/
package railways
