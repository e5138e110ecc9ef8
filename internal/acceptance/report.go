package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/san-kum/phystrace/internal/contract"
)

type Score struct {
	Validity    float64 `json:"validity"`
	Consistency float64 `json:"consistency"`
	Stability   float64 `json:"stability"`
	Overall     float64 `json:"overall"`
}

// Result is the outcome of one acceptance test. Score lies in [0, 1].
type Result struct {
	ID      string            `json:"id"`
	Kind    contract.TestKind `json:"kind"`
	Passed  bool              `json:"passed"`
	Score   float64           `json:"score"`
	Weight  float64           `json:"weight"`
	Value   float64           `json:"value"`
	Limit   float64           `json:"limit"`
	Message string            `json:"message"`
}

// Failure is a test that did not pass, or a trace the gate could not
// accept. It is reported, never returned as an error by Evaluate.
type Failure struct {
	Test    string            `json:"test"`
	Kind    contract.TestKind `json:"kind,omitempty"`
	Message string            `json:"message"`
}

func (f Failure) Error() string {
	if f.Test == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Test, f.Message)
}

type Report struct {
	OK       bool      `json:"ok"`
	Score    Score     `json:"score"`
	Results  []Result  `json:"results"`
	Errors   []Failure `json:"errors"`
	Warnings []string  `json:"warnings"`
	Details  Details   `json:"details"`
}

// Value and Limit are NaN or infinite when a test could not measure its
// quantity or has an open bound. JSON carries those as null.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Value jsonFloat `json:"value"`
		Limit jsonFloat `json:"limit"`
	}{plain(r), jsonFloat(r.Value), jsonFloat(r.Limit)})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	aux := struct {
		*plain
		Value jsonFloat `json:"value"`
		Limit jsonFloat `json:"limit"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Value, r.Limit = float64(aux.Value), float64(aux.Limit)
	return nil
}

// jsonFloat encodes non-finite values as null and decodes null as NaN.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = jsonFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

// finite swaps float values for jsonFloat so detail values always encode.
func finite(v any) any {
	switch x := v.(type) {
	case float64:
		return jsonFloat(x)
	case []float64:
		out := make([]jsonFloat, len(x))
		for i, f := range x {
			out[i] = jsonFloat(f)
		}
		return out
	case map[string]float64:
		out := make(map[string]jsonFloat, len(x))
		for k, f := range x {
			out[k] = jsonFloat(f)
		}
		return out
	}
	return v
}

func (r *Report) Result(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return Result{}, false
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Details keeps supplementary report fields in insertion order.
type Details struct {
	m *orderedmap.OrderedMap[string, any]
}

func NewDetails() Details {
	return Details{m: orderedmap.NewOrderedMap[string, any]()}
}

func (d *Details) Set(key string, v any) {
	if d.m == nil {
		d.m = orderedmap.NewOrderedMap[string, any]()
	}
	d.m.Set(key, v)
}

func (d Details) Get(key string) (any, bool) {
	if d.m == nil {
		return nil, false
	}
	return d.m.Get(key)
}

func (d Details) Keys() []string {
	if d.m == nil {
		return nil
	}
	return d.m.Keys()
}

func (d Details) Len() int {
	if d.m == nil {
		return 0
	}
	return d.m.Len()
}

func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		v, _ := d.Get(key)
		val, err := json.Marshal(finite(v))
		if err != nil {
			return nil, fmt.Errorf("details.%s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores keys in document order. Values decode to their
// generic JSON form.
func (d *Details) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = Details{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("details: expected object")
	}
	*d = NewDetails()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("details.%s: %w", key, err)
		}
		d.m.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
