package heuristic

// MaxOutput estimates the remaining achievable output as the sum, over
// trees not yet chosen, of the best output compatible with the state's
// current box — admissible because no tree can ever contribute more than
// its own best compatible leaf.
type MaxOutput struct{}

func (MaxOutput) Update(eng Engine, child, parent *State, leafValue float64) {
	child.G = parent.G + leafValue
	child.H = 0
	for ti := child.IndepSet + 1; ti < eng.NumSets(); ti++ {
		if v, ok := eng.MaxCompatibleOutput(ti, child.Box); ok {
			child.H += v
		}
	}
}

// Feasible is always true: max-output has no threshold to prune against.
func (MaxOutput) Feasible(*State) bool { return true }

func (MaxOutput) OpenScore(eps float64, s *State) float64 { return s.F(eps) }

// FocalScore prefers deeper states (more trees committed), then higher
// accumulated output, to accelerate solution discovery within the focal
// window.
func (MaxOutput) FocalScore(s *State) float64 {
	return float64(s.IndepSet)*1e15 + s.G
}

func (MaxOutput) CompareOpen(a, b *State) int { return a.IndepSet - b.IndepSet }
