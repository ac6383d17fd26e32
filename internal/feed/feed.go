// Package feed provides event sources that drive the backtest engine.
package feed

import (
	"context"

	"quantbt/internal/models"
)

// SliceSource replays a pre-loaded event slice. The caller guarantees
// ascending time order.
type SliceSource struct {
	events []models.MarketEvent
	pos    int
}

// NewSliceSource creates a source over the given events.
func NewSliceSource(events ...models.MarketEvent) *SliceSource {
	return &SliceSource{events: events}
}

// Next implements engine.EventSource.
func (s *SliceSource) Next(ctx context.Context) (models.MarketEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.events) {
		return nil, false, nil
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true, nil
}

// ChannelSource adapts a live event channel. The sequence ends when
// the channel is closed.
type ChannelSource struct {
	ch <-chan models.MarketEvent
}

// NewChannelSource creates a source over the given channel.
func NewChannelSource(ch <-chan models.MarketEvent) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next implements engine.EventSource.
func (s *ChannelSource) Next(ctx context.Context) (models.MarketEvent, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case ev, ok := <-s.ch:
		if !ok {
			return nil, false, nil
		}
		return ev, true, nil
	}
}
