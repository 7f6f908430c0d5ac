package cfg

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	// ErrRedeclaration matches every *RedeclarationError.
	ErrRedeclaration = errors.New("redeclared in this block")
	// ErrUnresolvedLabel matches every *UnresolvedLabelError.
	ErrUnresolvedLabel = errors.New("label not defined")
	// ErrUnsupportedConstruct matches every *UnsupportedConstructError.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	// ErrMalformedRange matches every *MalformedRangeError.
	ErrMalformedRange = errors.New("range without loop variables")
	// ErrUnknownNode is returned when an edge endpoint is not part of the graph.
	ErrUnknownNode = errors.New("node not in graph")
)

// RedeclarationError reports a name declared twice in one block.
type RedeclarationError struct {
	Name string
	Pos  token.Position
}

func (e *RedeclarationError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Pos, e.Name, ErrRedeclaration)
}

func (e *RedeclarationError) Is(target error) bool {
	return target == ErrRedeclaration
}

// UnresolvedLabelError reports a goto, break or continue naming a label
// that the function never defines.
type UnresolvedLabelError struct {
	Label string
	Pos   token.Position
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, ErrUnresolvedLabel, e.Label)
}

func (e *UnresolvedLabelError) Is(target error) bool {
	return target == ErrUnresolvedLabel
}

// UnsupportedConstructError reports syntax that has no lowering.
type UnsupportedConstructError struct {
	Construct string
	Pos       token.Position
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, ErrUnsupportedConstruct, e.Construct)
}

func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

// MalformedRangeError reports a range loop with no loop variables.
type MalformedRangeError struct {
	Pos token.Position
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, ErrMalformedRange)
}

func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}
