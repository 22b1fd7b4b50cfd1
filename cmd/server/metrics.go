package main

import (
	"fmt"
	"net/http"

	"fleamarket.gg/internal/transport/router"
)

// Minimal Prometheus exposition format.
func (rt *marketRuntime) metricsHandler(r *router.Router) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP ragfair_offers Offers in the pool.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_offers gauge\n")
		all := rt.market.Pool.Len()
		player := len(rt.market.PlayerOffers())
		fmt.Fprintf(rw, "ragfair_offers{source=%q} %d\n", "player", player)
		fmt.Fprintf(rw, "ragfair_offers{source=%q} %d\n", "trader", all-player)

		fmt.Fprintf(rw, "# HELP ragfair_sweep_runs_total Completed settlement sweeps.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_sweep_runs_total counter\n")
		fmt.Fprintf(rw, "ragfair_sweep_runs_total %d\n", rt.sweepRuns.Load())

		fmt.Fprintf(rw, "# HELP ragfair_sweep_errors_total Sweeps that reported an error.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_sweep_errors_total counter\n")
		fmt.Fprintf(rw, "ragfair_sweep_errors_total %d\n", rt.sweepErrors.Load())

		fmt.Fprintf(rw, "# HELP ragfair_sweep_ms Last sweep duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_sweep_ms gauge\n")
		fmt.Fprintf(rw, "ragfair_sweep_ms %d\n", rt.lastSweepMS.Load())

		fmt.Fprintf(rw, "# HELP ragfair_settled_total Offers settled by the sweep.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_settled_total counter\n")
		fmt.Fprintf(rw, "ragfair_settled_total{outcome=%q} %d\n", "sold", rt.soldTotal.Load())
		fmt.Fprintf(rw, "ragfair_settled_total{outcome=%q} %d\n", "expired", rt.expiredTotal.Load())

		fmt.Fprintf(rw, "# HELP ragfair_trader_restocks_total Trader offer refreshes.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_trader_restocks_total counter\n")
		fmt.Fprintf(rw, "ragfair_trader_restocks_total %d\n", rt.restocks.Load())

		fmt.Fprintf(rw, "# HELP ragfair_last_snapshot_unix Creation time of the last snapshot.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_last_snapshot_unix gauge\n")
		fmt.Fprintf(rw, "ragfair_last_snapshot_unix %d\n", rt.lastSnapshot.Load())

		requests, errs := r.Stats()
		fmt.Fprintf(rw, "# HELP ragfair_requests_total Requests by message type.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_requests_total counter\n")
		for _, c := range requests {
			fmt.Fprintf(rw, "ragfair_requests_total{type=%q} %d\n", c.Key, c.Value)
		}
		fmt.Fprintf(rw, "# HELP ragfair_request_errors_total Rejected requests by error code.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_request_errors_total counter\n")
		for _, c := range errs {
			fmt.Fprintf(rw, "ragfair_request_errors_total{code=%q} %d\n", c.Key, c.Value)
		}

		if rt.audit != nil {
			fmt.Fprintf(rw, "# HELP ragfair_audit_write_fail_total Audit lines that could not be written.\n")
			fmt.Fprintf(rw, "# TYPE ragfair_audit_write_fail_total counter\n")
			fmt.Fprintf(rw, "ragfair_audit_write_fail_total %d\n", rt.audit.Failed())
		}

		if rt.idx == nil {
			return
		}
		s := rt.idx.Stats()
		fmt.Fprintf(rw, "# HELP ragfair_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "ragfair_index_queue_depth %d\n", s.QueueDepth)

		fmt.Fprintf(rw, "# HELP ragfair_index_queue_capacity Index writer queue capacity.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_index_queue_capacity gauge\n")
		fmt.Fprintf(rw, "ragfair_index_queue_capacity %d\n", s.QueueCapacity)

		fmt.Fprintf(rw, "# HELP ragfair_index_dropped_total Index writes dropped on a full queue.\n")
		fmt.Fprintf(rw, "# TYPE ragfair_index_dropped_total counter\n")
		fmt.Fprintf(rw, "ragfair_index_dropped_total{kind=%q} %d\n", "audit", s.DropAuditTotal)
		fmt.Fprintf(rw, "ragfair_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
	}
}
