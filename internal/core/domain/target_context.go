package domain

// TargetContext is one link of the ancestry chain of in-progress builds.
// It is never mutated after creation, so a chain can be shared by any number
// of goroutines without locking. The nil *TargetContext is the empty chain.
type TargetContext struct {
	path   InternedString
	parent *TargetContext
	depth  int
}

// RootContext returns the empty chain.
func RootContext() *TargetContext {
	return nil
}

// Push returns a new chain with path on top of c. c itself is unchanged.
func (c *TargetContext) Push(path string) *TargetContext {
	return &TargetContext{
		path:   NewInternedString(path),
		parent: c,
		depth:  c.Depth() + 1,
	}
}

// Path returns the path at the top of the chain, or "" for the empty chain.
func (c *TargetContext) Path() string {
	if c == nil {
		return ""
	}
	return c.path.String()
}

// Parent returns the chain below the top.
func (c *TargetContext) Parent() *TargetContext {
	if c == nil {
		return nil
	}
	return c.parent
}

// Depth returns the number of links in the chain.
func (c *TargetContext) Depth() int {
	if c == nil {
		return 0
	}
	return c.depth
}

// Contains reports whether path appears anywhere in the chain.
func (c *TargetContext) Contains(path string) bool {
	h := NewInternedString(path)
	for cur := c; cur != nil; cur = cur.parent {
		if cur.path == h {
			return true
		}
	}
	return false
}

// Paths returns the chain from the top down.
func (c *TargetContext) Paths() []string {
	out := make([]string, 0, c.Depth())
	for cur := c; cur != nil; cur = cur.parent {
		out = append(out, cur.path.String())
	}
	return out
}
