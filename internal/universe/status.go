package universe

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusKind enumerates the fleet state machine.
type StatusKind int

const (
	StatusStationed StatusKind = iota
	StatusTraveling
	StatusReturning
	StatusExploring
	StatusColonizing
	// StatusInvalid marks a stored status that failed to parse. The travel
	// guard forces such fleets back to stationed.
	StatusInvalid
)

// Status is the fleet's state-machine position. Target carries the
// destination coordinates for exploring/colonizing states and is zero
// otherwise.
type Status struct {
	Kind   StatusKind
	Target Coordinate
}

// Stationed is the terminal idle state.
func Stationed() Status { return Status{Kind: StatusStationed} }

// Traveling is an outbound flight toward a known planet.
func Traveling() Status { return Status{Kind: StatusTraveling} }

// Returning is a flight back to the fleet's origin.
func Returning() Status { return Status{Kind: StatusReturning} }

// Exploring is an outbound flight toward unexplored coordinates.
func Exploring(c Coordinate) Status { return Status{Kind: StatusExploring, Target: c} }

// Colonizing is an outbound flight intending to settle the coordinates.
func Colonizing(c Coordinate) Status { return Status{Kind: StatusColonizing, Target: c} }

// InFlight reports whether the status represents a trip with a pending
// arrival time.
func (s Status) InFlight() bool {
	switch s.Kind {
	case StatusTraveling, StatusReturning, StatusExploring, StatusColonizing:
		return true
	}
	return false
}

// String renders the canonical stored form: "stationed", "traveling",
// "returning", "exploring:x:y:z", "colonizing:x:y:z".
func (s Status) String() string {
	switch s.Kind {
	case StatusStationed:
		return "stationed"
	case StatusTraveling:
		return "traveling"
	case StatusReturning:
		return "returning"
	case StatusExploring:
		return "exploring:" + s.Target.String()
	case StatusColonizing:
		return "colonizing:" + s.Target.String()
	}
	return "invalid"
}

// MarshalJSON renders the status in its canonical string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON parses the canonical string form.
func (s *Status) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses the stored status form. Unknown shapes return an
// error; callers in the tick pipeline map that to StatusInvalid instead
// of failing.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "stationed":
		return Stationed(), nil
	case "traveling":
		return Traveling(), nil
	case "returning":
		return Returning(), nil
	}
	head, rest, found := strings.Cut(raw, ":")
	if !found {
		return Status{Kind: StatusInvalid}, fmt.Errorf("status %q: unknown state", raw)
	}
	coord, err := ParseCoordinate(rest)
	if err != nil {
		return Status{Kind: StatusInvalid}, fmt.Errorf("status %q: %w", raw, err)
	}
	switch head {
	case "exploring":
		return Exploring(coord), nil
	case "colonizing":
		return Colonizing(coord), nil
	}
	return Status{Kind: StatusInvalid}, fmt.Errorf("status %q: unknown state %q", raw, head)
}
