// Package native holds pre-built descriptions of library functions whose
// calls are modelled as opaque nodes: their parameter and result types, and
// whether calling them ends the program.
package native

import (
	"fmt"
	"sort"
	"sync"

	"github.com/l3aro/go-cfg-builder/pkg/typesys"
)

// Key identifies a stub by import path, function (or method) name and arity.
// Methods count their receiver in Arity.
type Key struct {
	Package string `json:"package"`
	Name    string `json:"name"`
	Arity   int    `json:"arity"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s/%d", k.Package, k.Name, k.Arity)
}

// Stub describes one native function.
type Stub struct {
	Key
	Receiver   bool            `json:"receiver,omitempty"` // first parameter is the method receiver
	Params     []*typesys.Type `json:"params"`
	Result     *typesys.Type   `json:"result,omitempty"`
	Variadic   bool            `json:"variadic,omitempty"`   // last parameter accepts any number of arguments
	Terminates bool            `json:"terminates,omitempty"` // never returns to the caller
}

// accepts reports whether a call with arity arguments matches s.
func (s *Stub) accepts(arity int) bool {
	if s.Variadic {
		return arity >= len(s.Params)-1
	}
	return arity == len(s.Params)
}

// Registry is a concurrency-safe set of stubs.
type Registry struct {
	mu     sync.RWMutex
	stubs  map[Key]*Stub
	byName map[string][]*Stub
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stubs:  make(map[Key]*Stub),
		byName: make(map[string][]*Stub),
	}
}

// Register adds s, replacing any stub with the same key. Arity is derived
// from the parameter list.
func (r *Registry) Register(s Stub) {
	s.Arity = len(s.Params)
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.stubs[s.Key]; ok {
		r.unindex(old)
	}
	r.stubs[s.Key] = &s
	name := s.Package + "." + s.Name
	r.byName[name] = append(r.byName[name], &s)
}

func (r *Registry) unindex(old *Stub) {
	name := old.Package + "." + old.Name
	list := r.byName[name]
	for i, s := range list {
		if s == old {
			r.byName[name] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Lookup returns the stub for (pkg, name, arity). An exact arity match wins
// over a variadic one.
func (r *Registry) Lookup(pkg, name string, arity int) (*Stub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.stubs[Key{Package: pkg, Name: name, Arity: arity}]; ok && !s.Variadic {
		return s, true
	}
	for _, s := range r.byName[pkg+"."+name] {
		if s.accepts(arity) {
			return s, true
		}
	}
	return nil, false
}

// Len returns the number of registered stubs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stubs)
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.stubs))
	for k := range r.stubs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default returns the shared registry preloaded with the standard stubs.
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
		registerStandard(defaultRegistry)
	})
	return defaultRegistry
}

var (
	boolType   = &typesys.Type{Kind: typesys.Bool, Name: "bool"}
	intType    = &typesys.Type{Kind: typesys.Int, Name: "int"}
	runeType   = &typesys.Type{Kind: typesys.Int, Name: "rune"}
	stringType = &typesys.Type{Kind: typesys.String, Name: "string"}
	anyType    = &typesys.Type{Kind: typesys.Interface, Name: "any"}
	anySlice   = &typesys.Type{Kind: typesys.Slice, Elem: anyType}
	monthType  = &typesys.Type{Kind: typesys.Named, Name: "time.Month", Underlying: intType}
	timeType   = &typesys.Type{Kind: typesys.Named, Name: "time.Time", Underlying: &typesys.Type{Kind: typesys.Struct}}
)

func registerStandard(r *Registry) {
	str := func(name string, result *typesys.Type, params ...*typesys.Type) {
		r.Register(Stub{Key: Key{Package: "strings", Name: name}, Params: params, Result: result})
	}
	str("HasPrefix", boolType, stringType, stringType)
	str("HasSuffix", boolType, stringType, stringType)
	str("Contains", boolType, stringType, stringType)
	str("Index", intType, stringType, stringType)
	str("IndexRune", intType, stringType, runeType)
	str("Replace", stringType, stringType, stringType, stringType, intType)
	str("ReplaceAll", stringType, stringType, stringType, stringType)

	r.Register(Stub{Key: Key{Package: "net/url", Name: "PathEscape"}, Params: []*typesys.Type{stringType}, Result: stringType})
	r.Register(Stub{Key: Key{Package: "net/url", Name: "QueryEscape"}, Params: []*typesys.Type{stringType}, Result: stringType})

	r.Register(Stub{Key: Key{Package: "os", Name: "Exit"}, Params: []*typesys.Type{intType}, Terminates: true})
	r.Register(Stub{Key: Key{Package: "log", Name: "Fatal"}, Params: []*typesys.Type{anySlice}, Variadic: true, Terminates: true})
	r.Register(Stub{Key: Key{Package: "log", Name: "Fatalf"}, Params: []*typesys.Type{stringType, anySlice}, Variadic: true, Terminates: true})
	r.Register(Stub{Key: Key{Package: "log", Name: "Fatalln"}, Params: []*typesys.Type{anySlice}, Variadic: true, Terminates: true})

	r.Register(Stub{Key: Key{Package: "time", Name: "Time.Month"}, Receiver: true, Params: []*typesys.Type{timeType}, Result: monthType})
}
