package model

const (
	PositionSideLong  = "long"
	PositionSideShort = "short"
)

// Position is one open futures position as reported by the venue. Size is
// always positive; Side tells the direction.
type Position struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price"`
	MarkPrice  float64 `json:"mark_price"`
	Leverage   string  `json:"leverage,omitempty"`
	Mode       string  `json:"mode,omitempty"`
}

// PositionReport is the answer to a position lookup. Closable is set only when
// the lookup was made for a close order and holds the size that order can
// reduce.
type PositionReport struct {
	Positions []Position `json:"positions"`
	Closable  *float64   `json:"closable,omitempty"`
}
