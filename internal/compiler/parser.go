package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a graph document.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	if strings.HasSuffix(lower, ".json") {
		return FormatJSON
	}
	return FormatAuto
}

// Parser is responsible for converting raw bytes into a Graph.
type Parser struct {
	format Format
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithFormat forces the document format instead of sniffing it.
func WithFormat(f Format) ParserOption {
	return func(p *Parser) {
		p.format = f
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type rawNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position domain.Position `json:"position"`
	Data     map[string]any  `json:"data"`
}

type rawSheet struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Nodes       []rawNode           `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

type rawGraph struct {
	Nodes       []rawNode           `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
	Groups      []domain.BotGroup   `json:"groups"`
	Sheets      []rawSheet          `json:"sheets"`
}

// Parse decodes a graph document. Node data bags that do not fit their type
// do not fail the parse: the node keeps a DecodeErr so the compiler can report it in place.
func (p *Parser) Parse(data []byte) (*domain.Graph, error) {
	doc, err := p.normalize(data)
	if err != nil {
		return nil, err
	}

	var raw rawGraph
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}

	FlattenSheets(&raw)

	g := &domain.Graph{
		Connections: raw.Connections,
		Groups:      raw.Groups,
		Nodes:       make([]domain.Node, 0, len(raw.Nodes)),
	}
	for i, rn := range raw.Nodes {
		if strings.TrimSpace(rn.ID) == "" {
			return nil, fmt.Errorf("node #%d missing ID", i)
		}
		g.Nodes = append(g.Nodes, DecodeNode(rn.ID, rn.Type, rn.Position, rn.Data))
	}
	return g, nil
}

// normalize turns the input into JSON bytes.
func (p *Parser) normalize(data []byte) ([]byte, error) {
	format := p.format
	if format == FormatAuto {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			format = FormatJSON
		} else {
			format = FormatYAML
		}
	}
	if format == FormatJSON {
		return data, nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml graph: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml graph: %w", err)
	}
	return out, nil
}

// DecodeNode builds a typed node from its raw data bag.
func DecodeNode(id, typ string, pos domain.Position, bag map[string]any) domain.Node {
	node := domain.Node{ID: id, Type: domain.NodeType(typ), Position: pos}

	data, err := domain.NewData(node.Type)
	if err != nil {
		node.DecodeErr = err
		return node
	}
	if err := decodeData(bag, data); err != nil {
		node.DecodeErr = fmt.Errorf("%w: %v", domain.ErrMalformedData, err)
		return node
	}
	node.Data = data
	return node
}

func decodeData(bag map[string]any, out domain.NodeData) error {
	if bag == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(bag)
}
