package models

import (
	"errors"
	"fmt"
)

// ErrorKind names one entry of the conversion error taxonomy.
type ErrorKind string

const (
	KindAuthentication    ErrorKind = "authentication"
	KindNotFound          ErrorKind = "not_found"
	KindConfiguration     ErrorKind = "configuration"
	KindUpstreamTransient ErrorKind = "upstream_transient"
	KindBlockRender       ErrorKind = "block_render"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrAuthentication    = errors.New("authentication rejected")
	ErrNotFound          = errors.New("not found")
	ErrConfiguration     = errors.New("invalid configuration")
	ErrUpstreamTransient = errors.New("upstream unavailable")
	ErrBlockRender       = errors.New("block render failed")
)

// FetchError is an upstream failure while reading blocks or pages.
type FetchError struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d, code %s): %s", e.Op, e.Kind, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUpstreamTransient:
		return e.Kind == KindUpstreamTransient
	}
	return false
}

// ConfigurationError is a caller input error detected before any fetch.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// BlockRenderError describes a block whose payload could not be rendered.
// It is absorbed by the renderer and never returned from a conversion.
type BlockRenderError struct {
	BlockID   string
	BlockType BlockType
	Reason    string
}

func (e *BlockRenderError) Error() string {
	return fmt.Sprintf("render block %s (%s): %s", e.BlockID, e.BlockType, e.Reason)
}

func (e *BlockRenderError) Is(target error) bool {
	return target == ErrBlockRender
}

// Kind returns the taxonomy kind of err, or "" when err is not one of ours.
func Kind(err error) ErrorKind {
	var fe *FetchError
	var ce *ConfigurationError
	var be *BlockRenderError
	switch {
	case errors.As(err, &fe):
		return fe.Kind
	case errors.As(err, &ce):
		return KindConfiguration
	case errors.As(err, &be):
		return KindBlockRender
	}
	return ""
}
