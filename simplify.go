// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package combiner

// SimplifyCycle reduces (A - B) * C + D to the shortest operation list the
// identities below allow. The result depends only on e.
//
//   - B == Zero drops the subtraction; B == A turns the load into Zero.
//   - A zero running value skips the multiply; C == Zero collapses the
//     stage to Load(Zero); Load(One) * C becomes Load(C). Any other
//     multiply is kept, including Mul(One).
//   - D == Zero drops the addition; Load(Zero) + D becomes Load(D).
//   - (A - X) * C + X becomes Interpolate(to=A, from=X, weight=C).
func SimplifyCycle(e CycleExpr) Stage {
	var s Stage
	s.push(Load(e.A))

	if e.B != Zero {
		if e.B == s.Ops[0].Param1 {
			s.Ops[0].Param1 = Zero
		} else {
			s.push(Sub(e.B))
		}
	}

	if s.N > 1 || s.Ops[0].Param1 != Zero {
		switch {
		case e.C == Zero:
			s = NewStage(Load(Zero))
		case s.N == 1 && s.Ops[0].Param1 == One:
			s.Ops[0].Param1 = e.C
		default:
			s.push(Mul(e.C))
		}
	}

	if e.D != Zero {
		if s.N == 1 && s.Ops[0].Param1 == Zero {
			s.Ops[0].Param1 = e.D
		} else {
			s.push(Add(e.D))
		}
	}

	if s.N == 4 && s.Ops[1].Param1 == s.Ops[3].Param1 {
		s = NewStage(Interpolate(s.Ops[0].Param1, s.Ops[1].Param1, s.Ops[2].Param1))
	}
	return s
}
