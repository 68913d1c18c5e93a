package types

// Side indicates which way an order stands on an outcome: for it to win, or
// against it.
type Side int8

const (
	SideUnspecified Side = iota
	SideFor
	SideAgainst
)

func (s Side) String() string {
	switch s {
	case SideFor:
		return "for"
	case SideAgainst:
		return "against"
	default:
		return "unspecified"
	}
}

// Opposite returns the side a matching counterparty must hold.
func (s Side) Opposite() Side {
	switch s {
	case SideFor:
		return SideAgainst
	case SideAgainst:
		return SideFor
	default:
		return SideUnspecified
	}
}
