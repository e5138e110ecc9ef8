package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"gopkg.in/yaml.v3"
)

// Constants holds the world's named constants in declaration order.
type Constants struct {
	m *orderedmap.OrderedMap[string, float64]
}

func NewConstants() Constants {
	return Constants{m: orderedmap.NewOrderedMap[string, float64]()}
}

func (c *Constants) Set(name string, v float64) {
	if c.m == nil {
		c.m = orderedmap.NewOrderedMap[string, float64]()
	}
	c.m.Set(name, v)
}

func (c Constants) Get(name string) (float64, bool) {
	if c.m == nil {
		return 0, false
	}
	return c.m.Get(name)
}

func (c Constants) Len() int {
	if c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Names returns the constant names in declaration order.
func (c Constants) Names() []string {
	if c.m == nil {
		return nil
	}
	return c.m.Keys()
}

func (c Constants) Clone() Constants {
	if c.m == nil {
		return Constants{}
	}
	return Constants{m: c.m.Copy()}
}

func (c *Constants) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("constants: expected mapping, got line %d", node.Line)
	}
	*c = NewConstants()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v float64
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("constants.%s: %w", node.Content[i].Value, err)
		}
		c.m.Set(node.Content[i].Value, v)
	}
	return nil
}

func (c Constants) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.Names() {
		v, _ := c.Get(name)
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &val)
	}
	return node, nil
}

func (c *Constants) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = Constants{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("constants: expected object")
	}
	*c = NewConstants()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("constants.%s: %w", key, err)
		}
		c.m.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

func (c Constants) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(name)
		v, _ := c.Get(name)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
