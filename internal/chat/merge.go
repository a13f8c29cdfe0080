package chat

// Merge appends added to stored and drops every turn equal (same role,
// structurally equal content) to one already kept, so the first
// occurrence survives at its original position. A user who repeats
// themselves verbatim therefore loses the repeat. Neither input is
// modified.
func Merge(stored, added []Turn) []Turn {
	out := make([]Turn, 0, len(stored)+len(added))
	for _, seq := range [][]Turn{stored, added} {
		for _, t := range seq {
			if !containsTurn(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

func containsTurn(turns []Turn, t Turn) bool {
	for _, k := range turns {
		if k.Equal(t) {
			return true
		}
	}
	return false
}
