package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"depresolve/internal/policies"
	"depresolve/internal/types"
)

// conflictOutcome is the result of one selection round over the nodes
// currently reachable from the root.
type conflictOutcome struct {
	winners    map[types.NodeID]string
	conflicted map[string][]string
}

// resolveConflicts assigns every node its terminal state. Selection is
// repeated over the nodes reachable through retained versions until the
// candidate set is stable, so versions only reachable through an evicted
// node neither win nor leak into the classpath. Parents of an evicted
// version are linked to the winner and their scopes propagated through it
// before states are fixed.
func resolveConflicts(ctx context.Context, b *graphBuilder, strategy policies.ConflictStrategy) ([]types.ResolutionRecord, []types.ResolutionProblem, error) {
	g := b.graph
	var (
		candidates map[types.NodeID]bool
		outcome    conflictOutcome
	)
	for {
		candidates, outcome = settle(g, strategy)
		if !b.redirectLosers(candidates, outcome) {
			break
		}
		if err := b.drain(ctx); err != nil {
			return nil, nil, err
		}
	}
	g.replaced = map[types.NodeID]types.NodeID{}

	var records []types.ResolutionRecord
	for i := range g.Nodes {
		node := g.Nodes[i]
		switch node.Kind {
		case types.NodeKindRoot:
			if err := g.transition(node.ID, types.NodeRetained); err != nil {
				return nil, nil, err
			}
			continue
		case types.NodeKindFiles:
			if node.State == types.NodeExpanded {
				if err := g.transition(node.ID, types.NodeRetained); err != nil {
					return nil, nil, err
				}
			}
			continue
		}
		if node.State != types.NodeExpanded {
			continue
		}
		key := node.Module.Key()
		switch {
		case outcome.winners[node.ID] != "":
			if err := g.transition(node.ID, types.NodeRetained); err != nil {
				return nil, nil, err
			}
		case candidates[node.ID] && outcome.conflicted[key] != nil:
			if err := g.transition(node.ID, types.NodeConflicted); err != nil {
				return nil, nil, err
			}
		case candidates[node.ID]:
			replacement := winnerFor(g, outcome.winners, node)
			winner := g.Nodes[replacement].Version
			if err := g.transition(node.ID, types.NodeEvicted); err != nil {
				return nil, nil, err
			}
			g.Nodes[node.ID].EvictedBy = winner
			g.replaced[node.ID] = replacement
			records = append(records, types.ResolutionRecord{
				Dependency: node.Module.String(),
				Action:     "evict",
				Value:      node.Version,
				Reason:     fmt.Sprintf("superseded by %s (%s)", winner, strategy.Name()),
			})
		default:
			if err := g.transition(node.ID, types.NodeEvicted); err != nil {
				return nil, nil, err
			}
			records = append(records, types.ResolutionRecord{
				Dependency: node.Module.String(),
				Action:     "evict",
				Value:      node.Version,
				Reason:     "only reachable through evicted versions",
			})
		}
	}
	recomputeScopes(g)

	var problems []types.ResolutionProblem
	keys := make([]string, 0, len(outcome.conflicted))
	for key := range outcome.conflicted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		conflicting := outcome.conflicted[key]
		b.versions.sortDescending(conflicting)
		problems = append(problems, types.ResolutionProblem{
			Coordinate: key,
			Reason:     types.ReasonConflict,
			Message:    fmt.Sprintf("version conflict for %s: %s", key, strings.Join(conflicting, ", ")),
		})
	}

	log.Ctx(ctx).Debug().
		Str("strategy", string(strategy.Name())).
		Int("evictions", len(records)).
		Int("conflicts", len(problems)).
		Msg("conflicts resolved")
	return records, problems, nil
}

// settle runs selection rounds until the candidate set no longer changes.
func settle(g *ResolvedGraph, strategy policies.ConflictStrategy) (map[types.NodeID]bool, conflictOutcome) {
	candidates := map[types.NodeID]bool{}
	for _, node := range g.Nodes {
		if node.Kind == types.NodeKindModule && node.State == types.NodeExpanded {
			candidates[node.ID] = true
		}
	}
	var outcome conflictOutcome
	for round := 0; round <= len(g.Nodes); round++ {
		outcome = selectWinners(g, candidates, strategy)
		reachable := reachableThrough(g, outcome.winners)
		next := map[types.NodeID]bool{}
		for id := range reachable {
			node := g.Nodes[id]
			if node.Kind == types.NodeKindModule && node.State == types.NodeExpanded {
				next[id] = true
			}
		}
		if sameNodeSet(candidates, next) {
			break
		}
		candidates = next
	}
	return candidates, outcome
}

// redirectLosers links every retained parent of an evicted candidate to
// the winning version. It reports whether any new scope has to be
// propagated.
func (b *graphBuilder) redirectLosers(candidates map[types.NodeID]bool, outcome conflictOutcome) bool {
	g := b.graph
	queued := false
	for id := range g.Nodes {
		node := g.Nodes[id]
		if !candidates[node.ID] || outcome.winners[node.ID] != "" || outcome.conflicted[node.Module.Key()] != nil {
			continue
		}
		winner := winnerFor(g, outcome.winners, node)
		for _, idx := range node.In {
			edge := g.Edges[idx]
			parent := g.Nodes[edge.From]
			if parent.Kind != types.NodeKindRoot && outcome.winners[edge.From] == "" {
				continue
			}
			g.addEdge(edge.From, winner, edge.Scopes, edge.Transitivity, edge.Requested, true)
			if b.arrive(winner, edge.Scopes, edge.Transitivity) {
				queued = true
			}
		}
	}
	return queued
}

func selectWinners(g *ResolvedGraph, candidates map[types.NodeID]bool, strategy policies.ConflictStrategy) conflictOutcome {
	outcome := conflictOutcome{
		winners:    map[types.NodeID]string{},
		conflicted: map[string][]string{},
	}
	for _, key := range g.Modules() {
		var versions []policies.Candidate
		seen := map[string]int{}
		for _, id := range g.byModule[key] {
			if !candidates[id] {
				continue
			}
			node := g.Nodes[id]
			if idx, ok := seen[node.Version]; ok {
				if node.Depth < versions[idx].Depth {
					versions[idx].Depth = node.Depth
				}
				if node.Order < versions[idx].Order {
					versions[idx].Order = node.Order
				}
				continue
			}
			seen[node.Version] = len(versions)
			versions = append(versions, policies.Candidate{
				Node:    id,
				Version: node.Version,
				Depth:   node.Depth,
				Order:   node.Order,
			})
		}
		if len(versions) == 0 {
			continue
		}
		selected := strategy.Select(versions)
		if selected < 0 {
			for _, candidate := range versions {
				outcome.conflicted[key] = append(outcome.conflicted[key], candidate.Version)
			}
			continue
		}
		winner := versions[selected].Version
		for _, id := range g.byModule[key] {
			if candidates[id] && g.Nodes[id].Version == winner {
				outcome.winners[id] = winner
			}
		}
	}
	return outcome
}

// reachableThrough returns every node reachable from the root when only
// the root, file nodes, and winners may be traversed.
func reachableThrough(g *ResolvedGraph, winners map[types.NodeID]string) map[types.NodeID]bool {
	reached := map[types.NodeID]bool{g.Root: true}
	queue := []types.NodeID{g.Root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, idx := range g.Nodes[id].Out {
			to := g.Edges[idx].To
			if reached[to] {
				continue
			}
			reached[to] = true
			if winners[to] != "" || g.Nodes[to].Kind == types.NodeKindFiles {
				queue = append(queue, to)
			}
		}
	}
	return reached
}

// winnerFor returns the retained node replacing loser, preferring the one
// with the same classifier.
func winnerFor(g *ResolvedGraph, winners map[types.NodeID]string, loser types.GraphNode) types.NodeID {
	fallback := types.NoNode
	for _, id := range g.byModule[loser.Module.Key()] {
		if winners[id] == "" {
			continue
		}
		if g.Nodes[id].Module == loser.Module {
			return id
		}
		if fallback == types.NoNode {
			fallback = id
		}
	}
	return fallback
}

// recomputeScopes narrows each retained node's aggregated scopes to the
// edges arriving from retained parents.
func recomputeScopes(g *ResolvedGraph) {
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Kind != types.NodeKindModule || node.State != types.NodeRetained {
			continue
		}
		var scopes types.ScopeSet
		for _, idx := range node.In {
			edge := g.Edges[idx]
			parent := g.Nodes[edge.From]
			if parent.Kind == types.NodeKindRoot || parent.State == types.NodeRetained {
				scopes = scopes.Union(edge.Scopes)
			}
		}
		node.Scopes = scopes
	}
}

func sameNodeSet(a map[types.NodeID]bool, b map[types.NodeID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
