package app

type StreamAction int

const (
	StreamNoAction StreamAction = iota
	StreamEnable
	StreamDisable
)

// Receiving every remote stream does not scale past a screenful of tiles.
// Tiles 0..5 stay subscribed; everything past the cap is suppressed.
const (
	visibleStreamCap = 6
	lastEnabledIndex = visibleStreamCap - 1
)

// VisibilityPolicy decides, per participant and render pass, whether a remote
// video stream should be enabled, disabled, or left alone.
type VisibilityPolicy interface {
	Decide(visibleCount, renderIndex int, hasEnabledStream bool) StreamAction
}

// TileCapPolicy ranks purely by render index (join order). Below the cap the
// transport-level receive-all covers everyone, so no adjustment is needed.
type TileCapPolicy struct{}

func (TileCapPolicy) Decide(visibleCount, renderIndex int, hasEnabledStream bool) StreamAction {
	if visibleCount < visibleStreamCap {
		return StreamNoAction
	}
	if renderIndex <= lastEnabledIndex {
		if !hasEnabledStream {
			return StreamEnable
		}
		return StreamNoAction
	}
	if hasEnabledStream {
		return StreamDisable
	}
	return StreamNoAction
}
