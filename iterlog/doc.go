// Package iterlog records the iteration history of a calculation and plays it
// back.
//
// A Recorder is owned by one solve or optimization run. Each iteration appends
// a Step (description, severity, convergence metric, flow and head snapshots,
// ids to highlight). Log returns an immutable copy that callers may keep,
// encode or hand to a Player.
//
// Player is the playback state machine:
//
//	stopped ──Play──▶ playing ──Pause──▶ paused
//	   ▲                │  ▲               │
//	   └──────Stop──────┘  └─────Play──────┘
//	   ▲                                   │
//	   └───────────────Stop────────────────┘
//
// Playing advances an index into the log at the configured speed, paused
// freezes it, and Stop resets it and releases the log. The player never
// touches numeric state; it only indexes a finished Log, so playback speed is
// independent of how many iterations the calculation took.
package iterlog
