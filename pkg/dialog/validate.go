package dialog

import "fmt"

// Severity indicates whether a finding blocks a save or is advisory.
type Severity int

const (
	SeverityError   Severity = iota // blocks save until repaired
	SeverityWarning                 // advisory
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding is a single validation result.
type Finding struct {
	Node     *Node // nil for dialog-level findings
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
}

// Validate runs all structural checks and returns the findings. It is
// read-only: index inconsistencies are reported here and repaired by the
// save path, never by Validate itself.
func Validate(d *Dialog) []Finding {
	var out []Finding
	out = append(out, validateIndices(d)...)
	out = append(out, validateAlternation(d)...)
	out = append(out, validateTargets(d)...)
	out = append(out, validateSpeakers(d)...)
	return out
}

// HasErrors reports whether any finding is severity error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateIndices checks that every pointer's stored index and target kind
// match the target's current position in its owning list.
func validateIndices(d *Dialog) []Finding {
	pos := make(map[*Node]uint32, d.NodeCount())
	for i, n := range d.Entries {
		pos[n] = uint32(i)
	}
	for i, n := range d.Replies {
		pos[n] = uint32(i)
	}
	var out []Finding
	d.EachPointer(func(p *Pointer) {
		if p.Target == nil {
			return
		}
		want, ok := pos[p.Target]
		if !ok {
			return // dangling; reported by validateTargets
		}
		if p.Index != want || p.TargetKind != p.Target.Kind {
			out = append(out, Finding{
				Node:     p.Source,
				Message:  fmt.Sprintf("pointer stores %s index %d, target is %s index %d", p.TargetKind, p.Index, p.Target.Kind, want),
				Severity: SeverityError,
			})
		}
	})
	return out
}

// validateAlternation checks the entry/reply alternation on every edge.
// The orphan container is exempt: rehoused nodes may be either kind.
func validateAlternation(d *Dialog) []Finding {
	exempt := FindOrphanContainer(d)
	var out []Finding
	for _, p := range d.Starts {
		if p.Target != nil && p.Target.Kind != KindEntry {
			out = append(out, Finding{
				Message:  "start pointer targets a reply node",
				Severity: SeverityError,
			})
		}
	}
	d.EachNode(func(n *Node) {
		if n == exempt {
			return
		}
		for _, p := range n.Pointers {
			if p.Target != nil && p.Target.Kind == n.Kind {
				out = append(out, Finding{
					Node:     n,
					Message:  fmt.Sprintf("%s node points at another %s node", n.Kind, p.Target.Kind),
					Severity: SeverityError,
				})
			}
		}
	})
	return out
}

// validateTargets checks that every pointer targets a node the dialog owns.
func validateTargets(d *Dialog) []Finding {
	owned := make(map[*Node]bool, d.NodeCount())
	d.EachNode(func(n *Node) { owned[n] = true })
	var out []Finding
	d.EachPointer(func(p *Pointer) {
		if p.Target == nil || !owned[p.Target] {
			out = append(out, Finding{
				Node:     p.Source,
				Message:  "pointer target does not exist in this dialog",
				Severity: SeverityError,
			})
		}
	})
	return out
}

// validateSpeakers warns about speaker tags on player lines, which the
// runtime ignores.
func validateSpeakers(d *Dialog) []Finding {
	var out []Finding
	for _, n := range d.Replies {
		if n.Speaker != "" {
			out = append(out, Finding{
				Node:     n,
				Message:  "reply node carries a speaker tag",
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
