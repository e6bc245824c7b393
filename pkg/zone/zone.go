// Package zone implements the pure mapping from a normalized trackpad
// position to a Zone label (spec.md §4.2).
package zone

import "github.com/jason5545/TrackPal/pkg/config"

// Zone is the tagged variant of trackpad regions (spec.md §3).
type Zone int

const (
	None Zone = iota
	LeftEdge
	RightEdge
	BottomEdge
	TopEdge
	TopLeftCorner
	TopRightCorner
	BottomLeftCorner
	BottomRightCorner
	MiddleClick
	Center
)

func (z Zone) String() string {
	switch z {
	case None:
		return "none"
	case LeftEdge:
		return "left_edge"
	case RightEdge:
		return "right_edge"
	case BottomEdge:
		return "bottom_edge"
	case TopEdge:
		return "top_edge"
	case TopLeftCorner:
		return "top_left_corner"
	case TopRightCorner:
		return "top_right_corner"
	case BottomLeftCorner:
		return "bottom_left_corner"
	case BottomRightCorner:
		return "bottom_right_corner"
	case MiddleClick:
		return "middle_click"
	case Center:
		return "center"
	default:
		return "unknown"
	}
}

// IsScrollEdge reports whether z is one of the four scroll strips.
func (z Zone) IsScrollEdge() bool {
	switch z {
	case LeftEdge, RightEdge, BottomEdge, TopEdge:
		return true
	default:
		return false
	}
}

// IsCorner reports whether z is one of the four corner zones.
func (z Zone) IsCorner() bool {
	switch z {
	case TopLeftCorner, TopRightCorner, BottomLeftCorner, BottomRightCorner:
		return true
	default:
		return false
	}
}

// IsHorizontal reports whether the zone's on-axis is X (horizontal
// scrolling zones); false means the on-axis is Y.
func (z Zone) IsHorizontal() bool {
	return z == BottomEdge || z == TopEdge
}

// Corner returns the config.Corner this zone corresponds to, if any.
func (z Zone) Corner() (config.Corner, bool) {
	switch z {
	case TopLeftCorner:
		return config.TopLeft, true
	case TopRightCorner:
		return config.TopRight, true
	case BottomLeftCorner:
		return config.BottomLeft, true
	case BottomRightCorner:
		return config.BottomRight, true
	default:
		return 0, false
	}
}

// Resolve returns the zone for a normalized position under cfg.
// Evaluation order is first-match-wins, per spec.md §4.2. Resolve is
// total and deterministic: it depends only on (x, y, cfg).
func Resolve(x, y float64, cfg config.Config) Zone {
	if cfg.CornerTriggerEnabled {
		if c, ok := cornerAt(x, y, cfg.CornerTriggerZoneSize); ok {
			return c
		}
	}

	if cfg.MiddleClickEnabled && inMiddleClickZone(x, y, cfg) {
		return MiddleClick
	}

	if x < cfg.EdgeZoneWidth &&
		(cfg.VerticalEdgeMode == config.VerticalEdgeLeft || cfg.VerticalEdgeMode == config.VerticalEdgeBoth) {
		return LeftEdge
	}
	if x > 1-cfg.EdgeZoneWidth &&
		(cfg.VerticalEdgeMode == config.VerticalEdgeRight || cfg.VerticalEdgeMode == config.VerticalEdgeBoth) {
		return RightEdge
	}

	if cfg.HorizontalPosition == config.HorizontalBottom && y < cfg.HorizontalZoneHeight {
		return BottomEdge
	}
	if cfg.HorizontalPosition == config.HorizontalTop && y > 1-cfg.HorizontalZoneHeight {
		return TopEdge
	}

	return Center
}

func cornerAt(x, y, size float64) (Zone, bool) {
	switch {
	case x < size && y > 1-size:
		return TopLeftCorner, true
	case x > 1-size && y > 1-size:
		return TopRightCorner, true
	case x < size && y < size:
		return BottomLeftCorner, true
	case x > 1-size && y < size:
		return BottomRightCorner, true
	default:
		return None, false
	}
}

// inMiddleClickZone tests the central rectangle on the side opposite
// the configured horizontal scroll band (spec.md §4.2 rule 2).
func inMiddleClickZone(x, y float64, cfg config.Config) bool {
	halfW := cfg.MiddleClickZoneWidth / 2
	if x < 0.5-halfW || x > 0.5+halfW {
		return false
	}

	if cfg.HorizontalPosition == config.HorizontalBottom {
		// scroll band is at the bottom, so the middle-click rectangle
		// sits at the top.
		return y > 1-cfg.MiddleClickZoneHeight
	}
	return y < cfg.MiddleClickZoneHeight
}

// Depth measures how far inside z the position (x, y) lies, in [0,1]:
// 0 at the boundary shared with Center, 1 at the trackpad's physical
// edge or corner. Used to seed the Intent Evaluator's zone prior
// (spec.md §4.4).
func Depth(z Zone, x, y float64, cfg config.Config) float64 {
	switch z {
	case LeftEdge:
		return clamp01(1 - x/cfg.EdgeZoneWidth)
	case RightEdge:
		return clamp01((x - (1 - cfg.EdgeZoneWidth)) / cfg.EdgeZoneWidth)
	case BottomEdge:
		return clamp01(1 - y/cfg.HorizontalZoneHeight)
	case TopEdge:
		return clamp01((y - (1 - cfg.HorizontalZoneHeight)) / cfg.HorizontalZoneHeight)
	case TopLeftCorner, TopRightCorner, BottomLeftCorner, BottomRightCorner:
		return cornerDepth(z, x, y, cfg.CornerTriggerZoneSize)
	default:
		return 0.5
	}
}

func cornerDepth(z Zone, x, y, size float64) float64 {
	var dx, dy float64
	switch z {
	case TopLeftCorner:
		dx, dy = 1-x/size, (y-(1-size))/size
	case TopRightCorner:
		dx, dy = (x-(1-size))/size, (y-(1-size))/size
	case BottomLeftCorner:
		dx, dy = 1-x/size, 1-y/size
	case BottomRightCorner:
		dx, dy = (x-(1-size))/size, 1-y/size
	}
	return clamp01((dx + dy) / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PromotedEdges returns the two edges adjacent to a corner, in the
// order (horizontal edge, vertical edge), for corner promotion
// (spec.md §4.4).
func PromotedEdges(c Zone) (horizontal, vertical Zone) {
	switch c {
	case TopLeftCorner:
		return TopEdge, LeftEdge
	case TopRightCorner:
		return TopEdge, RightEdge
	case BottomLeftCorner:
		return BottomEdge, LeftEdge
	case BottomRightCorner:
		return BottomEdge, RightEdge
	default:
		return None, None
	}
}
