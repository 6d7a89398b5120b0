// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

// MergeStages tries to fuse a two-stage pipeline into one stage, so the
// second cycle costs no extra pass. It reports whether the pipeline was
// fused; on false p is unchanged.
//
// Rules, in order:
//   - Stage 1 is a single Load: substitute its operand for every Combined
//     in stage 2.
//   - Stage 2 starts with an Interpolate: no fusion.
//   - Stage 2 never reads Combined: stage 2 replaces stage 1.
//   - Stage 2 reads Combined once, in its Load: append the rest of
//     stage 2 to stage 1.
//   - Stage 2 reads Combined once, as the operand of a commutative second
//     op: append that op with stage 2's loaded operand, then any third op.
//
// Fusion is declined when the result would exceed MaxOps.
func MergeStages(p *Pipeline) bool {
	if p.NumStages != 2 {
		return false
	}
	s1, s2 := &p.Stages[0], &p.Stages[1]

	if s1.N == 1 && s1.Ops[0].Kind == OpLoad {
		combined := s1.Ops[0].Param1
		fused := *s2
		for i := range fused.N {
			op := &fused.Ops[i]
			op.Param1 = substitute(op.Param1, combined)
			if op.Kind == OpInterpolate {
				op.Param2 = substitute(op.Param2, combined)
				op.Param3 = substitute(op.Param3, combined)
			}
		}
		p.collapse(fused)
		return true
	}

	if s2.Ops[0].Kind == OpInterpolate {
		return false
	}

	uses := 0
	for _, op := range s2.List() {
		if op.Param1 == Combined {
			uses++
		}
	}

	switch {
	case uses == 0:
		p.collapse(*s2)
		return true

	case uses == 1 && s2.Ops[0].Param1 == Combined:
		if s1.N+s2.N-1 > MaxOps {
			return false
		}
		fused := *s1
		for _, op := range s2.List()[1:] {
			fused.push(op)
		}
		p.collapse(fused)
		return true

	case uses == 1 && s2.N >= 2 && s2.N <= 3 &&
		s2.Ops[1].Param1 == Combined && s2.Ops[1].Kind != OpSub:
		if s1.N+s2.N-1 > MaxOps {
			return false
		}
		fused := *s1
		fused.push(Op{Kind: s2.Ops[1].Kind, Param1: s2.Ops[0].Param1})
		if s2.N > 2 {
			fused.push(s2.Ops[2])
		}
		p.collapse(fused)
		return true
	}
	return false
}

func substitute(o, combined Operand) Operand {
	if o == Combined {
		return combined
	}
	return o
}

// collapse makes s the only stage.
func (p *Pipeline) collapse(s Stage) {
	p.Stages[0] = s
	p.Stages[1] = Stage{}
	p.NumStages = 1
}

// MergeCombiner merges both channels of c. Nothing is merged when color
// stage 2 reads CombinedAlpha: it needs the first alpha cycle on its own.
func MergeCombiner(c *Combiner) {
	if c.Color.NumStages == 2 && c.Color.Stages[1].References(CombinedAlpha) {
		return
	}
	MergeStages(&c.Color)
	MergeStages(&c.Alpha)
}

// Build decodes d and simplifies every active cycle. When merge is set,
// two-cycle pipelines are fused where possible.
func Build(d Descriptor, merge bool) Combiner {
	c := buildStages(Decode(d), merge)
	c.Key = d
	return c
}

// BuildMode is Build for a symbolic mode. Key is set when the mode is
// encodable and left zero otherwise, so hand-built modes outside the
// hardware tables must not be cached by key.
func BuildMode(m Mode, merge bool) Combiner {
	c := buildStages(m, merge)
	if d, err := Encode(m); err == nil {
		c.Key = d
	}
	return c
}

func buildStages(m Mode, merge bool) Combiner {
	n := m.Cycles.NumCycles()
	c := Combiner{
		Color: Pipeline{NumStages: n},
		Alpha: Pipeline{NumStages: n},
	}
	for i := range n {
		c.Color.Stages[i] = SimplifyCycle(m.Color[i])
		c.Alpha.Stages[i] = SimplifyCycle(m.Alpha[i])
	}
	if merge && n == 2 {
		MergeCombiner(&c)
	}
	return c
}
