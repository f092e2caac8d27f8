package engine

// DisplayState holds transient per-question view toggles. Every move resets it.
type DisplayState struct {
	ShowExplanation bool `json:"showExplanation"`
	ShowOriginal    bool `json:"showOriginal"`
}

type navigator struct {
	index   int
	total   int
	display DisplayState
}

func (n *navigator) isLast() bool {
	return n.index == n.total-1
}

// advance moves forward one question; it never wraps.
func (n *navigator) advance() bool {
	if n.index >= n.total-1 {
		return false
	}
	n.index++
	n.display = DisplayState{}
	return true
}

// retreat moves back one question; it never wraps.
func (n *navigator) retreat() bool {
	if n.index <= 0 {
		return false
	}
	n.index--
	n.display = DisplayState{}
	return true
}
