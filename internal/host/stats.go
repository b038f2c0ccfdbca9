package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

// ServerStatistics is the payload of SERVERSTATISTICS events.
type ServerStatistics struct {
	DeltaRate float64 `json:"deltaRate"`
	WSClients int     `json:"wsClients"`
	Uptime    float64 `json:"uptime"`
}

// RunStatistics publishes server statistics every statistics interval until
// ctx is done.
func (s *Server) RunStatistics(ctx context.Context) {
	ticker := time.NewTicker(s.conf.StatisticsInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.publishStatistics(now.Sub(last), now)
			last = now
		}
	}
}

func (s *Server) statistics(elapsed time.Duration, now time.Time) ServerStatistics {
	stats := ServerStatistics{Uptime: now.Sub(s.started).Seconds()}
	if secs := elapsed.Seconds(); secs > 0 {
		stats.DeltaRate = float64(s.deltas.Swap(0)) / secs
	}
	for _, o := range s.observers {
		if c, ok := o.(ClientCounter); ok {
			stats.WSClients += c.ClientCount()
		}
	}
	return stats
}

func (s *Server) publishStatistics(elapsed time.Duration, now time.Time) {
	stats := s.statistics(elapsed, now)
	data, err := json.Marshal(stats)
	if err != nil {
		logger.Error("Failed to encode server statistics", slog.Any("error", err))
		return
	}
	e := signalk.Event{Type: signalk.EventServerStatistics, Data: data, Timestamp: now.UnixMilli()}
	if !s.router.Publish(e) {
		logger.Warn("Server statistics dropped, router queue full")
	}
}
