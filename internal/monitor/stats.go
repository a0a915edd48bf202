package monitor

import (
	"log"
	"math/big"
	"time"

	"rig-mintbot/internal/ethutil"
)

// Stats is process-lifetime observability state. It is owned by the single
// monitor loop, reset on restart, and never a source of truth.
type Stats struct {
	Checks      uint64
	Mints       uint64
	UnitsMinted *big.Int
	WeiSpent    *big.Int
	Errors      uint64
	LastMintAt  time.Time
}

func newStats() *Stats {
	return &Stats{
		UnitsMinted: new(big.Int),
		WeiSpent:    new(big.Int),
	}
}

func (s *Stats) recordMint(units, cost *big.Int, at time.Time) {
	s.Mints++
	s.UnitsMinted.Add(s.UnitsMinted, units)
	s.WeiSpent.Add(s.WeiSpent, cost)
	s.LastMintAt = at
}

func (s *Stats) logSummary(startedAt time.Time) {
	lastMint := "never"
	if !s.LastMintAt.IsZero() {
		lastMint = s.LastMintAt.Format(time.RFC3339)
	}
	log.Printf(
		"[stats] uptime=%s checks=%d mints=%d units=%s spent=%s errors=%d last_mint=%s",
		time.Since(startedAt).Round(time.Second),
		s.Checks,
		s.Mints,
		s.UnitsMinted.String(),
		ethutil.FormatEther(s.WeiSpent),
		s.Errors,
		lastMint,
	)
}
