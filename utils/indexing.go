package utils

// Index is a list of block or scalar positions
type Index []int

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	if size < 0 {
		size = 0
	}
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for j, val := range J {
		r[j] = I[val]
	}
	return
}

func (I Index) Find(op EvalOp, target int) (J Index) {
	/*
		Returns the positions i of I for which (I[i] op target) holds
	*/
	switch op {
	case Equal:
		for i, val := range I {
			if val == target {
				J = append(J, i)
			}
		}
	case Less:
		for i, val := range I {
			if val < target {
				J = append(J, i)
			}
		}
	case LessOrEqual:
		for i, val := range I {
			if val <= target {
				J = append(J, i)
			}
		}
	case Greater:
		for i, val := range I {
			if val > target {
				J = append(J, i)
			}
		}
	case GreaterOrEqual:
		for i, val := range I {
			if val >= target {
				J = append(J, i)
			}
		}
	}
	return
}
