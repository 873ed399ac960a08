package models

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MarshalJSON writes attributes as a JSON object, keeping their order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := attr.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes the value using its original JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return []byte(v.Str), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.Fields.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML emits attributes as an ordered mapping node.
func (a Attributes) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, attr := range a {
		val, err := attr.Value.yamlNode()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr.Name},
			val,
		)
	}
	return node, nil
}

// MarshalYAML emits the value as a YAML node of the matching type.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode()
}

func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.Kind {
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}, nil
	case KindNumber:
		tag := "!!int"
		if bytes.ContainsAny([]byte(v.Str), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Str}, nil
	case KindBool:
		val := "false"
		if v.Bool {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}, nil
	case KindArray:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Items {
			child, err := item.yamlNode()
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case KindObject:
		m, err := v.Fields.MarshalYAML()
		if err != nil {
			return nil, err
		}
		return m.(*yaml.Node), nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}
