package cfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeTracker_Declare(t *testing.T) {
	s := NewScopeTracker()
	outer := s.OpenBlock(0)
	require.NoError(t, s.Declare("x", DeclShortVariable, outer, 1))

	err := s.Declare("x", DeclShortVariable, outer, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedeclaration))

	inner := s.OpenBlock(3)
	require.NoError(t, s.Declare("x", DeclShortVariable, inner, 4), "shadowing is legal")

	e, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, NodeID(4), e.Decl)
	assert.Equal(t, inner, e.Depth)

	closed := s.CloseBlock(inner, 5)
	require.Len(t, closed, 1)
	assert.Equal(t, NodeID(5), closed[0].ScopeEnd)

	e, ok = s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, NodeID(1), e.Decl)
}

func TestScopeTracker_BlankIsIgnored(t *testing.T) {
	s := NewScopeTracker()
	d := s.OpenBlock(NoNode)
	require.NoError(t, s.Declare("_", DeclShortVariable, d, 1))
	require.NoError(t, s.Declare("_", DeclShortVariable, d, 2))
	assert.Empty(t, s.VisibleNames())
}

func TestScopeTracker_DeclareMulti(t *testing.T) {
	tests := []struct {
		name    string
		before  []string
		names   []string
		fresh   []string
		wantErr bool
	}{
		{name: "all new", names: []string{"a", "b"}, fresh: []string{"a", "b"}},
		{name: "one new", before: []string{"a"}, names: []string{"a", "b"}, fresh: []string{"b"}},
		{name: "none new", before: []string{"a", "b"}, names: []string{"a", "b"}, wantErr: true},
		{name: "only blank", names: []string{"_", "_"}, wantErr: true},
		{name: "blank and new", before: []string{"a"}, names: []string{"_", "a", "c"}, fresh: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScopeTracker()
			d := s.OpenBlock(NoNode)
			for i, n := range tt.before {
				require.NoError(t, s.Declare(n, DeclShortVariable, d, NodeID(i)))
			}
			fresh, err := s.DeclareMulti(tt.names, d, 10)
			if tt.wantErr {
				var re *RedeclarationError
				require.True(t, errors.As(err, &re))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fresh, fresh)
			for _, n := range tt.fresh {
				e, ok := s.Lookup(n)
				require.True(t, ok)
				assert.Equal(t, DeclMultiShortVariable, e.Kind)
			}
		})
	}
}

func TestScopeTracker_CloseBlock(t *testing.T) {
	s := NewScopeTracker()
	fn := s.OpenBlock(NoNode)
	require.NoError(t, s.Declare("p", DeclParameter, fn, NoNode))
	require.NoError(t, s.Declare("b", DeclVariable, fn, 2))
	require.NoError(t, s.Declare("a", DeclVariable, fn, 1))

	closed := s.CloseBlock(fn, 9)
	require.Len(t, closed, 2, "parameters are not variables")
	assert.Equal(t, "b", closed[0].Name, "declaration order is kept")
	assert.Equal(t, "a", closed[1].Name)
	assert.Equal(t, -1, s.Depth())

	assert.Empty(t, s.CloseBlock(fn, 9), "closing twice does nothing")
	assert.Len(t, s.Variables(), 2)
	_, ok := s.Lookup("p")
	assert.False(t, ok)
}

func TestScopeTracker_VisibleNames(t *testing.T) {
	s := NewScopeTracker()
	d := s.OpenBlock(NoNode)
	require.NoError(t, s.Declare("x", DeclVariable, d, 1))
	inner := s.OpenBlock(NoNode)
	require.NoError(t, s.Declare("y", DeclVariable, inner, 2))
	assert.ElementsMatch(t, []string{"x", "y"}, s.VisibleNames())
	s.CloseBlock(inner, 3)
	assert.ElementsMatch(t, []string{"x"}, s.VisibleNames())
	assert.True(t, s.IsDeclaredAt("x", d))
	assert.False(t, s.IsDeclaredAt("x", inner))
}
