package cfg

// DeclKind is how a variable was introduced.
type DeclKind int

const (
	DeclNone DeclKind = iota
	DeclVariable
	DeclShortVariable
	DeclMultiShortVariable
	DeclConstant
	DeclParameter
)

func (k DeclKind) String() string {
	switch k {
	case DeclVariable:
		return "variable"
	case DeclShortVariable:
		return "short_variable"
	case DeclMultiShortVariable:
		return "multi_short_variable"
	case DeclConstant:
		return "constant"
	case DeclParameter:
		return "parameter"
	default:
		return "none"
	}
}

// ScopeEntry is one live declaration site of a name.
type ScopeEntry struct {
	Name  string
	Kind  DeclKind
	Decl  NodeID
	Depth int
}

// BlockInfo is an open lexical block.
type BlockInfo struct {
	Open  NodeID
	Depth int
	Decls []ScopeEntry
}

// ScopeTracker tracks which names are visible while a body is lowered.
// Depth 0 is the function's outermost block, shared with its parameters.
type ScopeTracker struct {
	visible map[string][]ScopeEntry // innermost entry last
	blocks  []*BlockInfo
	closed  []*Variable
}

// NewScopeTracker creates a tracker with no open block.
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{visible: make(map[string][]ScopeEntry)}
}

// Depth returns the depth of the innermost open block, or -1.
func (s *ScopeTracker) Depth() int {
	return len(s.blocks) - 1
}

// OpenBlock pushes a block opened at node open and returns its depth.
func (s *ScopeTracker) OpenBlock(open NodeID) int {
	b := &BlockInfo{Open: open, Depth: len(s.blocks)}
	s.blocks = append(s.blocks, b)
	return b.Depth
}

// Block returns the open block at depth, or nil.
func (s *ScopeTracker) Block(depth int) *BlockInfo {
	if depth < 0 || depth >= len(s.blocks) {
		return nil
	}
	return s.blocks[depth]
}

// IsDeclaredAt reports whether name already has a declaration at depth.
func (s *ScopeTracker) IsDeclaredAt(name string, depth int) bool {
	for _, e := range s.visible[name] {
		if e.Depth == depth {
			return true
		}
	}
	return false
}

// Declare makes name visible at depth. Declaring a name that is already
// declared at the same depth fails with a *RedeclarationError; shadowing a
// name of an enclosing block is allowed. The blank identifier is ignored.
func (s *ScopeTracker) Declare(name string, kind DeclKind, depth int, decl NodeID) error {
	if name == "_" || name == "" {
		return nil
	}
	if s.IsDeclaredAt(name, depth) {
		return &RedeclarationError{Name: name}
	}
	entry := ScopeEntry{Name: name, Kind: kind, Decl: decl, Depth: depth}
	s.visible[name] = append(s.visible[name], entry)
	if b := s.Block(depth); b != nil {
		b.Decls = append(b.Decls, entry)
	}
	return nil
}

// DeclareMulti declares the names of a multi-variable short declaration.
// Names already declared at depth are reused; at least one name must be new.
// It returns the names that were newly declared.
func (s *ScopeTracker) DeclareMulti(names []string, depth int, decl NodeID) ([]string, error) {
	var fresh []string
	for _, name := range names {
		if name != "_" && !s.IsDeclaredAt(name, depth) && !contains(fresh, name) {
			fresh = append(fresh, name)
		}
	}
	if len(fresh) == 0 {
		name := "_"
		if len(names) > 0 {
			name = names[0]
		}
		return nil, &RedeclarationError{Name: name}
	}
	for _, name := range fresh {
		if err := s.Declare(name, DeclMultiShortVariable, depth, decl); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

// Lookup returns the innermost visible declaration of name.
func (s *ScopeTracker) Lookup(name string) (ScopeEntry, bool) {
	entries := s.visible[name]
	if len(entries) == 0 {
		return ScopeEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Depth >= best.Depth {
			best = e
		}
	}
	return best, true
}

// CloseBlock removes every declaration made at depth and records scopeEnd
// as the node after which those variables are no longer visible. It pops
// the block when it is the innermost one. Closing an already closed depth
// does nothing.
func (s *ScopeTracker) CloseBlock(depth int, scopeEnd NodeID) []*Variable {
	var closed []*Variable
	for name, entries := range s.visible {
		kept := entries[:0]
		for _, e := range entries {
			if e.Depth != depth {
				kept = append(kept, e)
				continue
			}
			if e.Kind == DeclParameter {
				continue
			}
			closed = append(closed, &Variable{
				Name:     e.Name,
				Kind:     e.Kind,
				Decl:     e.Decl,
				ScopeEnd: scopeEnd,
				Depth:    e.Depth,
			})
		}
		if len(kept) == 0 {
			delete(s.visible, name)
		} else {
			s.visible[name] = kept
		}
	}
	if b := s.Block(depth); b != nil && depth == s.Depth() {
		// keep the table in declaration order
		closed = orderByBlock(closed, b)
		s.blocks = s.blocks[:len(s.blocks)-1]
	}
	s.closed = append(s.closed, closed...)
	return closed
}

func orderByBlock(vars []*Variable, b *BlockInfo) []*Variable {
	ordered := make([]*Variable, 0, len(vars))
	used := make([]bool, len(vars))
	for _, d := range b.Decls {
		for i, v := range vars {
			if !used[i] && v.Name == d.Name && v.Decl == d.Decl {
				ordered = append(ordered, v)
				used[i] = true
				break
			}
		}
	}
	for i, v := range vars {
		if !used[i] {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

// VisibleNames returns every name currently in scope.
func (s *ScopeTracker) VisibleNames() []string {
	names := make([]string, 0, len(s.visible))
	for name := range s.visible {
		names = append(names, name)
	}
	return names
}

// Variables returns the variables whose blocks have been closed.
func (s *ScopeTracker) Variables() []*Variable {
	return s.closed
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
