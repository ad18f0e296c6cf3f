package derive

import "fmt"

// Spec is the serializable form of a Rule, tagged by Kind.
type Spec struct {
	Kind   string `json:"kind" koanf:"kind"`
	Input  string `json:"input" koanf:"input"`
	Output string `json:"output" koanf:"output"`

	Factor    float64   `json:"factor,omitempty" koanf:"factor"`
	Min       float64   `json:"min,omitempty" koanf:"min"`
	Max       float64   `json:"max,omitempty" koanf:"max"`
	Step      int64     `json:"step,omitempty" koanf:"step"`
	Edges     []float64 `json:"edges,omitempty" koanf:"edges"`
	Labels    []string  `json:"labels,omitempty" koanf:"labels"`
	Cutoff    float64   `json:"cutoff,omitempty" koanf:"cutoff"`
	AtOrAbove string    `json:"at_or_above,omitempty" koanf:"at_or_above"`
	Below     string    `json:"below,omitempty" koanf:"below"`
}

// Build turns the spec into a Rule.
func (s Spec) Build() (Rule, error) {
	if s.Input == "" || s.Output == "" {
		return nil, fmt.Errorf("derive: %s rule needs input and output", s.Kind)
	}
	switch s.Kind {
	case "scale":
		return Scale{Input: s.Input, Out: s.Output, Factor: s.Factor}, nil
	case "clip":
		if s.Min > s.Max {
			return nil, fmt.Errorf("derive: clip %s: min %v > max %v", s.Output, s.Min, s.Max)
		}
		return Clip{Input: s.Input, Out: s.Output, Min: s.Min, Max: s.Max}, nil
	case "floor":
		if s.Step <= 0 {
			return nil, fmt.Errorf("derive: floor %s: step must be positive", s.Output)
		}
		return Floor{Input: s.Input, Out: s.Output, Step: s.Step}, nil
	case "bins":
		b := Bins{Input: s.Input, Out: s.Output, Edges: s.Edges, Labels: s.Labels}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b, nil
	case "threshold":
		return Threshold{Input: s.Input, Out: s.Output, Cutoff: s.Cutoff, AtOrAbove: s.AtOrAbove, Below: s.Below}, nil
	}
	return nil, fmt.Errorf("derive: unknown rule kind %q", s.Kind)
}

// BuildAll builds specs in order.
func BuildAll(specs []Spec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		r, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("derive[%d]: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
