package cligen

import (
	"fmt"

	"github.com/clify-dev/clify/internal/spec"
)

// FlagDescriptor maps one parameter to its command-line flag. Created
// during synthesis, read-only afterwards.
type FlagDescriptor struct {
	// Name is the kebab-case flag name, collision-resolved within the
	// command.
	Name  string
	Param spec.Param
}

// Descriptor maps one operation to a runnable command. The dispatch
// table owns all descriptors for the process lifetime.
type Descriptor struct {
	Name string
	Op   *spec.Operation

	// Flags preserves the operation's parameter declaration order; the
	// request builder relies on it for query encoding order.
	Flags []FlagDescriptor
}

// Synthesize derives one Descriptor per operation, in model order.
// It is deterministic: the same model always yields the same names in
// the same order. Command-name collisions get a numeric suffix in
// document order (create-user, create-user-2, ...).
func Synthesize(model *spec.Model) []*Descriptor {
	taken := make(map[string]bool, len(model.Operations))
	out := make([]*Descriptor, 0, len(model.Operations))

	for i := range model.Operations {
		op := &model.Operations[i]
		name := commandName(op)
		if taken[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", name, n)
				if !taken[candidate] {
					name = candidate
					break
				}
			}
		}
		taken[name] = true

		out = append(out, &Descriptor{
			Name:  name,
			Op:    op,
			Flags: synthesizeFlags(op),
		})
	}
	return out
}

func synthesizeFlags(op *spec.Operation) []FlagDescriptor {
	reserved := map[string]bool{"help": true}
	if op.Body != nil {
		// --data is claimed by the opaque body flag.
		reserved["data"] = true
	}

	flags := make([]FlagDescriptor, 0, len(op.Params))
	for _, p := range op.Params {
		name := kebabCase(p.Name)
		if name == "" {
			name = "param"
		}
		if reserved[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", name, n)
				if !reserved[candidate] {
					name = candidate
					break
				}
			}
		}
		reserved[name] = true
		flags = append(flags, FlagDescriptor{Name: name, Param: p})
	}
	return flags
}

// Table is the process-lifetime dispatch table: command name to
// descriptor, built once and immutable afterwards.
type Table struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

func NewTable(model *spec.Model) *Table {
	descs := Synthesize(model)
	byName := make(map[string]*Descriptor, len(descs))
	for _, d := range descs {
		byName[d.Name] = d
	}
	return &Table{ordered: descs, byName: byName}
}

// Resolve looks up a descriptor by command name.
func (t *Table) Resolve(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// All returns the descriptors in synthesis order.
func (t *Table) All() []*Descriptor { return t.ordered }
