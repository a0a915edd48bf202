package monitor

import (
	"log"
	"time"

	"rig-mintbot/internal/jsonl"
)

// mintLogEvent is one JSONL record in the monitor's event log.
type mintLogEvent struct {
	TsMs  int64  `json:"ts_ms"`
	Event string `json:"event"` // start | tick | mint | summary
	Mode  string `json:"mode,omitempty"`

	Outcome string `json:"outcome,omitempty"` // minted | skip_* | error
	Reason  string `json:"reason,omitempty"`

	PriceWei string `json:"price_wei,omitempty"`
	Amount   string `json:"amount,omitempty"`
	CostWei  string `json:"cost_wei,omitempty"`
	Epoch    uint64 `json:"epoch,omitempty"`

	Recipient string `json:"recipient,omitempty"`

	Checks      uint64 `json:"checks,omitempty"`
	Mints       uint64 `json:"mints,omitempty"`
	UnitsMinted string `json:"units_minted,omitempty"`
	WeiSpent    string `json:"wei_spent,omitempty"`
	Errors      uint64 `json:"errors,omitempty"`

	Err string `json:"err,omitempty"`

	UptimeMs int64 `json:"uptime_ms,omitempty"`
}

func runMode(dryRun bool) string {
	if dryRun {
		return "dry"
	}
	return "live"
}

func logMintEvent(w *jsonl.Writer, ev mintLogEvent) {
	if w == nil {
		return
	}
	if ev.TsMs == 0 {
		ev.TsMs = time.Now().UnixMilli()
	}
	if err := w.Append(ev); err != nil {
		log.Printf("[warn] mint log write failed: %v", err)
	}
}
