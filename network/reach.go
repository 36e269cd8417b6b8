// SPDX-License-Identifier: MIT

package network

// walker holds the state of an undirected multi-source breadth-first sweep.
type walker struct {
	net     *Network
	queue   []int
	visited []bool
}

// unreachable returns, in index order, the nodes no fixed-head node can reach
// through links of either direction.
// Complexity: O(V + E).
func (net *Network) unreachable() []int {
	var out []int
	for i, seen := range net.Reachable(net.fixed...) {
		if !seen {
			out = append(out, i)
		}
	}
	return out
}

func (w *walker) enqueue(i int) {
	if w.visited[i] {
		return
	}
	w.visited[i] = true
	w.queue = append(w.queue, i)
}

func (w *walker) loop() {
	for head := 0; head < len(w.queue); head++ {
		u := w.queue[head]
		for _, k := range w.net.incident[u] {
			w.enqueue(w.net.Other(k, u))
		}
	}
}

// Reachable reports, per node index, whether the node can be reached from
// any of the given sources. Out-of-range sources are ignored.
func (net *Network) Reachable(sources ...int) []bool {
	w := &walker{
		net:     net,
		queue:   make([]int, 0, len(net.nodes)),
		visited: make([]bool, len(net.nodes)),
	}
	for _, s := range sources {
		if s >= 0 && s < len(net.nodes) {
			w.enqueue(s)
		}
	}
	w.loop()
	return w.visited
}
