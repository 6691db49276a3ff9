package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses a YAML mapping into an ordered Object.
//
// String scalars become string leaves. Every other scalar and every
// sequence becomes a Raw leaf holding its JSON equivalent.
func ParseYAML(data []byte) (*Object, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// Empty file.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return New(), nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}
	obj, err := objectFromNode(root)
	if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return obj, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func objectFromNode(node *yaml.Node) (*Object, error) {
	obj := New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		valNode := resolveAlias(node.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}
		key := keyNode.Value

		switch {
		case valNode.Kind == yaml.MappingNode:
			child, err := objectFromNode(valNode)
			if err != nil {
				return nil, err
			}
			obj.Set(key, child)
		case valNode.Kind == yaml.ScalarNode && valNode.ShortTag() == "!!str":
			obj.Set(key, valNode.Value)
		default:
			var v any
			if err := valNode.Decode(&v); err != nil {
				return nil, fmt.Errorf("line %d: key %q: %w", valNode.Line, key, err)
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: key %q: %w", valNode.Line, key, err)
			}
			obj.Set(key, Raw(raw))
		}
	}
	return obj, nil
}

// MarshalYAML encodes the object as a block-style YAML mapping with
// 2-space indentation.
func MarshalYAML(o *Object) ([]byte, error) {
	root, err := nodeFromObject(o)
	if err != nil {
		return nil, err
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return b.Bytes(), nil
}

func nodeFromObject(o *Object) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range o.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}

		var valNode *yaml.Node
		switch t := o.values[k].(type) {
		case *Object:
			n, err := nodeFromObject(t)
			if err != nil {
				return nil, err
			}
			valNode = n
		case string:
			valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
		case Raw:
			// JSON is valid YAML flow syntax.
			var doc yaml.Node
			if err := yaml.Unmarshal(t, &doc); err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			if len(doc.Content) == 0 {
				valNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
			} else {
				valNode = doc.Content[0]
			}
		default:
			return nil, fmt.Errorf("key %q: unsupported value type %T", k, t)
		}
		m.Content = append(m.Content, keyNode, valNode)
	}
	return m, nil
}
