package graph

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKind         = errors.New("invalid entity kind")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrUnknownRelationship = errors.New("unknown relationship")
	ErrArity               = errors.New("relationship arity mismatch")
	ErrTypeMismatch        = errors.New("attribute type mismatch")
	ErrKindMismatch        = errors.New("relationship target kind mismatch")
	ErrNotFound            = errors.New("entity not found")
	ErrExists              = errors.New("entity already exists")
	ErrMalformed           = errors.New("malformed description encoding")
)

// Error 带错误类型的具体错误, 用 errors.Is 判断 Kind
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
