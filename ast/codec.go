package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of an expression tree document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks a document format from a file extension. Anything that
// is not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeFile reads and decodes the expression tree document at path.
func DecodeFile(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatForPath(path))
}

// Decode parses a document holding a list of top-level expressions.
func Decode(data []byte, format Format) ([]Node, error) {
	var doc any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("ast: invalid json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("ast: invalid yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("ast: unknown document format %q", format)
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("ast: document must be a list of expressions")
	}
	return decodeList(items, "$")
}

func decodeList(items []any, path string) ([]Node, error) {
	nodes := make([]Node, 0, len(items))
	for i, item := range items {
		node, err := decodeNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

type fields struct {
	m    map[string]any
	path string
}

func (f fields) errorf(format string, args ...any) error {
	return fmt.Errorf("ast: %s: %s", f.path, fmt.Sprintf(format, args...))
}

func (f fields) str(key string) (string, error) {
	value, ok := f.m[key].(string)
	if !ok {
		return "", f.errorf("%q must be a string", key)
	}
	return value, nil
}

func (f fields) node(key string) (Node, error) {
	value, ok := f.m[key]
	if !ok {
		return nil, f.errorf("missing %q", key)
	}
	return decodeNode(value, f.path+"."+key)
}

func (f fields) list(key string) ([]any, error) {
	value, ok := f.m[key]
	if !ok || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, f.errorf("%q must be a list", key)
	}
	return items, nil
}

func (f fields) nodes(key string) ([]Node, error) {
	items, err := f.list(key)
	if err != nil {
		return nil, err
	}
	return decodeList(items, f.path+"."+key)
}

func decodeNode(v any, path string) (Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: %s: expected an object", path)
	}
	f := fields{m: m, path: path}
	kind, err := f.str("kind")
	if err != nil {
		return nil, err
	}
	switch kind {
	case "nil":
		return &Nil{}, nil
	case "bool":
		value, ok := m["value"].(bool)
		if !ok {
			return nil, f.errorf("\"value\" must be a boolean")
		}
		return &Bool{Value: value}, nil
	case "int":
		value, err := toInt(m["value"])
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		return &Int{Value: value}, nil
	case "float":
		value, err := toFloat(m["value"])
		if err != nil {
			return nil, f.errorf("%v", err)
		}
		return &Float{Value: value}, nil
	case "string":
		value, err := f.str("value")
		if err != nil {
			return nil, err
		}
		return &String{Value: value}, nil
	case "ident":
		name, err := f.str("name")
		if err != nil {
			return nil, err
		}
		return &Ident{Name: name}, nil
	case "infix":
		operator, err := f.str("op")
		if err != nil {
			return nil, err
		}
		if !IsOperator(operator) {
			return nil, f.errorf("unknown operator %q", operator)
		}
		left, err := f.node("left")
		if err != nil {
			return nil, err
		}
		right, err := f.node("right")
		if err != nil {
			return nil, err
		}
		return &Infix{X: left, Op: operator, Y: right}, nil
	case "call":
		fun, err := f.node("func")
		if err != nil {
			return nil, err
		}
		args, err := f.nodes("args")
		if err != nil {
			return nil, err
		}
		return &Call{Fun: fun, Args: args}, nil
	case "attr":
		object, err := f.node("object")
		if err != nil {
			return nil, err
		}
		name, err := f.str("name")
		if err != nil {
			return nil, err
		}
		sep := "."
		if _, ok := m["sep"]; ok {
			if sep, err = f.str("sep"); err != nil {
				return nil, err
			}
			if sep != "." && sep != ":" {
				return nil, f.errorf("unknown separator %q", sep)
			}
		}
		return &GetAttr{X: object, Sep: sep, Attr: name}, nil
	case "index":
		object, err := f.node("object")
		if err != nil {
			return nil, err
		}
		index, err := f.node("index")
		if err != nil {
			return nil, err
		}
		return &Index{X: object, Index: index}, nil
	case "block":
		body, err := f.nodes("body")
		if err != nil {
			return nil, err
		}
		return &Block{Exprs: body}, nil
	case "program":
		name, err := f.str("name")
		if err != nil {
			return nil, err
		}
		rawParams, err := f.list("params")
		if err != nil {
			return nil, err
		}
		params := make([]*Param, 0, len(rawParams))
		for i, raw := range rawParams {
			pm, ok := raw.(map[string]any)
			if !ok {
				return nil, f.errorf("params[%d] must be an object", i)
			}
			pf := fields{m: pm, path: fmt.Sprintf("%s.params[%d]", path, i)}
			pname, err := pf.str("name")
			if err != nil {
				return nil, err
			}
			ptype, _ := pm["type"].(string)
			params = append(params, &Param{Name: pname, Type: ptype})
		}
		body, err := f.nodes("body")
		if err != nil {
			return nil, err
		}
		return &Program{Name: name, Params: params, Body: &Block{Exprs: body}}, nil
	case "var":
		scope, err := f.str("scope")
		if err != nil {
			return nil, err
		}
		if Scope(scope) != Local && Scope(scope) != Global {
			return nil, f.errorf("unknown scope %q", scope)
		}
		name, err := f.str("name")
		if err != nil {
			return nil, err
		}
		value, err := f.node("value")
		if err != nil {
			return nil, err
		}
		return &Var{Scope: Scope(scope), Name: name, Value: value}, nil
	default:
		return nil, f.errorf("unknown node kind %q", kind)
	}
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case json.Number:
		if strings.ContainsAny(string(v), ".eE") {
			return 0, fmt.Errorf("\"value\" must be an integer (got %s)", v)
		}
		return v.Int64()
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("\"value\" must be an integer")
	}
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case json.Number:
		return v.Float64()
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("\"value\" must be a number")
	}
}

// Encode renders expressions in the JSON interchange format accepted by
// Decode.
func Encode(nodes []Node) ([]byte, error) {
	items := make([]any, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, ToMap(node))
	}
	return json.Marshal(items)
}

// ToMap converts a node to its generic interchange representation.
func ToMap(node Node) map[string]any {
	switch node := node.(type) {
	case *Nil:
		return map[string]any{"kind": "nil"}
	case *Bool:
		return map[string]any{"kind": "bool", "value": node.Value}
	case *Int:
		return map[string]any{"kind": "int", "value": node.Value}
	case *Float:
		return map[string]any{"kind": "float", "value": node.Value}
	case *String:
		return map[string]any{"kind": "string", "value": node.Value}
	case *Ident:
		return map[string]any{"kind": "ident", "name": node.Name}
	case *Infix:
		return map[string]any{"kind": "infix", "op": node.Op, "left": ToMap(node.X), "right": ToMap(node.Y)}
	case *Call:
		return map[string]any{"kind": "call", "func": ToMap(node.Fun), "args": toMaps(node.Args)}
	case *GetAttr:
		sep := node.Sep
		if sep == "" {
			sep = "."
		}
		return map[string]any{"kind": "attr", "object": ToMap(node.X), "name": node.Attr, "sep": sep}
	case *Index:
		return map[string]any{"kind": "index", "object": ToMap(node.X), "index": ToMap(node.Index)}
	case *Block:
		return map[string]any{"kind": "block", "body": toMaps(node.Exprs)}
	case *Program:
		params := make([]any, 0, len(node.Params))
		for _, p := range node.Params {
			params = append(params, map[string]any{"name": p.Name, "type": p.Type})
		}
		var body []Node
		if node.Body != nil {
			body = node.Body.Exprs
		}
		return map[string]any{"kind": "program", "name": node.Name, "params": params, "body": toMaps(body)}
	case *Var:
		return map[string]any{"kind": "var", "scope": string(node.Scope), "name": node.Name, "value": ToMap(node.Value)}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

func toMaps(nodes []Node) []any {
	items := make([]any, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, ToMap(node))
	}
	return items
}
