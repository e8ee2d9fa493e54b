package domain

import "errors"

// ErrUnknownNodeType is returned when a node carries a tag outside the closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrMalformedData is returned when a node's data bag cannot be decoded for its type.
var ErrMalformedData = errors.New("malformed node data")

// ErrEmptyGraph is returned when a graph has no nodes at all.
var ErrEmptyGraph = errors.New("graph has no nodes")
