package dynamics

// BodyPair is an unordered pair of body handles, as produced by a joint
// or contact graph edge.
type BodyPair struct {
	Body1 BodyHandle
	Body2 BodyHandle
}

// NewBodyPair builds a pair from two handles, in the given order.
func NewBodyPair(body1, body2 BodyHandle) BodyPair {
	return BodyPair{Body1: body1, Body2: body2}
}

// Swap returns the pair with its two handles exchanged.
func (p BodyPair) Swap() BodyPair {
	return BodyPair{Body1: p.Body2, Body2: p.Body1}
}

// OtherHandle returns whichever of p's two handles is not self. Panics if
// self is neither — a graph edge should always touch the body it's
// indexed from.
func OtherHandle(p BodyPair, self BodyHandle) BodyHandle {
	switch self {
	case p.Body1:
		return p.Body2
	case p.Body2:
		return p.Body1
	default:
		panic("dynamics.OtherHandle: self is not a member of the pair")
	}
}
