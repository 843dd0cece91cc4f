package history

// Navigator walks a List for one edit session. The first step back stages
// the line being edited so that stepping forward past the newest entry gives
// it back unchanged.
type Navigator struct {
	list    *List
	index   int // 0 is the staged line, k the k-th newest entry
	staged  string
	version uint64
}

// NewNavigator creates a navigator positioned on the staged line.
func NewNavigator(list *List) *Navigator {
	return &Navigator{list: list}
}

// Active reports whether an entry from the list is being shown.
func (n *Navigator) Active() bool {
	return n.index > 0
}

// Index returns how many steps back from the staged line the navigator is.
func (n *Navigator) Index() int {
	return n.index
}

// Staged returns the line saved when navigation began.
func (n *Navigator) Staged() string {
	return n.staged
}

// Reset drops the staged line and returns to the idle position.
func (n *Navigator) Reset() {
	n.index = 0
	n.staged = ""
}

// Prev steps to the next older entry. current is the line being edited and
// is staged on the first step. It reports false when there is nothing older.
func (n *Navigator) Prev(current string) (string, bool) {
	n.checkVersion()
	if n.index >= n.list.Len() {
		return "", false
	}
	if n.index == 0 {
		n.staged = current
		n.version = n.list.Version()
	}
	n.index++
	return n.entry()
}

// Next steps to the next newer entry, or back to the staged line. It reports
// false when not navigating.
func (n *Navigator) Next() (string, bool) {
	n.checkVersion()
	if n.index == 0 {
		return "", false
	}
	n.index--
	if n.index == 0 {
		staged := n.staged
		n.staged = ""
		return staged, true
	}
	return n.entry()
}

func (n *Navigator) entry() (string, bool) {
	return n.list.At(n.list.Len() - n.index)
}

func (n *Navigator) checkVersion() {
	if n.index > 0 && n.version != n.list.Version() {
		// The list changed under us; positions are meaningless now.
		n.index = 0
	}
}
