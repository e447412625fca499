package fuzzy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateVariable is returned when a variable name is registered twice.
var ErrDuplicateVariable = errors.New("fuzzy: duplicate variable")

// Clause pairs a variable name with one of its term names.
type Clause struct {
	Variable string
	Term     string
}

// Rule is a conjunctive (AND) rule: IF all of If THEN all of Then.
type Rule struct {
	If   []Clause
	Then []Clause
}

// String renders the rule in "IF a=x AND b=y THEN c=z" form.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString("IF ")
	writeClauses(&sb, r.If)
	sb.WriteString(" THEN ")
	writeClauses(&sb, r.Then)
	return sb.String()
}

func writeClauses(sb *strings.Builder, cs []Clause) {
	for i, c := range cs {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.Variable)
		sb.WriteByte('=')
		sb.WriteString(c.Term)
	}
}

// ref is a clause resolved against the variable tables. A negative index
// means the clause names an unknown variable or term.
type ref struct {
	variable int
	term     int
}

func (r ref) known() bool { return r.variable >= 0 && r.term >= 0 }

type compiledRule struct {
	rule Rule
	ante []ref
	cons []ref
}

// System is a Mamdani inference system. Rules are evaluated in insertion order.
type System struct {
	Name string

	inputs    []*Variable
	outputs   []*Variable
	inputIdx  map[string]int
	outputIdx map[string]int
	rules     []compiledRule

	// resolvedTerms is the total term count when rules were last resolved.
	// Terms are append-only, so a different count means refs are stale.
	resolvedTerms int
}

// NewSystem creates an empty inference system.
func NewSystem(name string) *System {
	return &System{
		Name:      name,
		inputIdx:  make(map[string]int),
		outputIdx: make(map[string]int),
	}
}

// AddInput registers an input variable.
func (s *System) AddInput(v *Variable) error {
	if _, ok := s.inputIdx[v.Name]; ok {
		return fmt.Errorf("%w: input %q", ErrDuplicateVariable, v.Name)
	}
	s.inputIdx[v.Name] = len(s.inputs)
	s.inputs = append(s.inputs, v)
	s.resolve()
	return nil
}

// AddOutput registers an output variable.
func (s *System) AddOutput(v *Variable) error {
	if _, ok := s.outputIdx[v.Name]; ok {
		return fmt.Errorf("%w: output %q", ErrDuplicateVariable, v.Name)
	}
	s.outputIdx[v.Name] = len(s.outputs)
	s.outputs = append(s.outputs, v)
	s.resolve()
	return nil
}

// AddRule appends a rule. Clauses may reference variables or terms that do
// not exist yet; such clauses never match until the variable is registered
// or the term is added.
func (s *System) AddRule(r Rule) error {
	if len(r.If) == 0 || len(r.Then) == 0 {
		return fmt.Errorf("fuzzy: rule %q needs at least one antecedent and one consequent", r.String())
	}
	cr := compiledRule{rule: r}
	s.compile(&cr)
	s.rules = append(s.rules, cr)
	return nil
}

// Rules returns the rules in evaluation order.
func (s *System) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, cr := range s.rules {
		out[i] = cr.rule
	}
	return out
}

// Input returns the named input variable or nil.
func (s *System) Input(name string) *Variable {
	if i, ok := s.inputIdx[name]; ok {
		return s.inputs[i]
	}
	return nil
}

// Output returns the named output variable or nil.
func (s *System) Output(name string) *Variable {
	if i, ok := s.outputIdx[name]; ok {
		return s.outputs[i]
	}
	return nil
}

func (s *System) resolve() {
	for i := range s.rules {
		s.compile(&s.rules[i])
	}
	s.resolvedTerms = s.termCount()
}

func (s *System) termCount() int {
	n := 0
	for _, v := range s.inputs {
		n += len(v.terms)
	}
	for _, v := range s.outputs {
		n += len(v.terms)
	}
	return n
}

// refresh re-resolves rules when a term was added to a registered variable
// after the rules referencing it were compiled.
func (s *System) refresh() {
	if s.termCount() != s.resolvedTerms {
		s.resolve()
	}
}

func (s *System) compile(cr *compiledRule) {
	cr.ante = resolveClauses(cr.rule.If, s.inputs, s.inputIdx)
	cr.cons = resolveClauses(cr.rule.Then, s.outputs, s.outputIdx)
}

func resolveClauses(cs []Clause, vars []*Variable, idx map[string]int) []ref {
	refs := make([]ref, len(cs))
	for i, c := range cs {
		vi, ok := idx[c.Variable]
		if !ok {
			refs[i] = ref{variable: -1, term: -1}
			continue
		}
		refs[i] = ref{variable: vi, term: vars[vi].termIndex(c.Term)}
	}
	return refs
}

// Snapshot is the fuzzified state of the inputs for one inference call.
// Degrees[i] holds per-term memberships of input i, or nil when the input
// was not supplied.
type Snapshot struct {
	system  *System
	Degrees [][]float64
}

// Memberships returns term -> membership for the named input, or nil.
func (sn Snapshot) Memberships(input string) map[string]float64 {
	if sn.system == nil {
		return nil
	}
	i, ok := sn.system.inputIdx[input]
	if !ok || sn.Degrees[i] == nil {
		return nil
	}
	v := sn.system.inputs[i]
	out := make(map[string]float64, len(v.terms))
	for t, name := range v.terms {
		out[name] = sn.Degrees[i][t]
	}
	return out
}

// Result holds the crisp outputs of one inference call alongside the input
// snapshot they were derived from.
type Result struct {
	Outputs  map[string]float64
	Snapshot Snapshot
}

// activation is the min over antecedent memberships. Any unresolved clause
// or unsupplied input yields zero.
func (cr *compiledRule) activation(degrees [][]float64) float64 {
	act := 1.0
	for _, a := range cr.ante {
		if !a.known() || a.term >= len(degrees[a.variable]) {
			return 0
		}
		if m := degrees[a.variable][a.term]; m < act {
			act = m
		}
	}
	return act
}

// Fuzzify converts crisp inputs into a snapshot. Inputs that are not
// registered are ignored.
func (s *System) Fuzzify(inputs map[string]float64) Snapshot {
	s.refresh()
	sn := Snapshot{system: s, Degrees: make([][]float64, len(s.inputs))}
	for name, value := range inputs {
		if i, ok := s.inputIdx[name]; ok {
			sn.Degrees[i] = s.inputs[i].degrees(value)
		}
	}
	return sn
}

// Infer runs fuzzification, min/max rule evaluation and centroid
// defuzzification. An output no rule fired for takes its domain midpoint.
func (s *System) Infer(inputs map[string]float64) Result {
	sn := s.Fuzzify(inputs)

	aggregated := make([][]float64, len(s.outputs))
	for i, v := range s.outputs {
		aggregated[i] = make([]float64, len(v.universe))
	}

	for ri := range s.rules {
		cr := &s.rules[ri]
		act := cr.activation(sn.Degrees)
		if act <= 0 {
			continue
		}
		for _, c := range cr.cons {
			if !c.known() {
				continue
			}
			mf := s.outputs[c.variable].mfs[c.term]
			agg := aggregated[c.variable]
			for k, m := range mf {
				if m > act {
					m = act
				}
				if m > agg[k] {
					agg[k] = m
				}
			}
		}
	}

	out := make(map[string]float64, len(s.outputs))
	for i, v := range s.outputs {
		out[v.Name] = centroid(v, aggregated[i])
	}
	return Result{Outputs: out, Snapshot: sn}
}

func centroid(v *Variable, agg []float64) float64 {
	var num, den float64
	for k, m := range agg {
		num += v.universe[k] * m
		den += m
	}
	if den == 0 {
		return v.midpoint()
	}
	return num / den
}

// ActiveRule describes a rule that fired for a snapshot.
type ActiveRule struct {
	Index       int
	Description string
	Activation  float64
}

// ActiveRules lists rules with non-zero activation for the snapshot, highest
// activation first. Equal activations keep rule order.
func (s *System) ActiveRules(sn Snapshot) []ActiveRule {
	if len(sn.Degrees) != len(s.inputs) {
		return nil
	}
	s.refresh()
	var active []ActiveRule
	for i := range s.rules {
		cr := &s.rules[i]
		act := cr.activation(sn.Degrees)
		if act > 0 {
			active = append(active, ActiveRule{
				Index:       i,
				Description: cr.rule.String(),
				Activation:  act,
			})
		}
	}
	sort.SliceStable(active, func(a, b int) bool {
		return active[a].Activation > active[b].Activation
	})
	return active
}
