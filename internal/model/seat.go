package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SeatID identifies a seat inside a show's grid.  Row and Col are zero-based;
// the string form uses an alphabetical row label followed by the 1-based
// column number, e.g. "A1" or "J10".  A SeatID is only unique within a show.
type SeatID struct {
	Row int // zero-based row index (A = 0)
	Col int // zero-based column index (1 = 0)
}

// String renders the seat key used on the wire and in storage.
func (s SeatID) String() string {
	return RowLabel(s.Row) + strconv.Itoa(s.Col+1)
}

// MarshalText lets seat ids travel as plain JSON strings.
func (s SeatID) MarshalText() ([]byte, error) {
	if s.Row < 0 || s.Col < 0 {
		return nil, fmt.Errorf("%w: negative position", ErrInvalidSeat)
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a seat key produced by MarshalText.
func (s *SeatID) UnmarshalText(b []byte) error {
	id, err := ParseSeatID(string(b))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// Less orders seats row first, then column.
func (s SeatID) Less(o SeatID) bool {
	if s.Row != o.Row {
		return s.Row < o.Row
	}
	return s.Col < o.Col
}

// ParseSeatID converts a key such as "a1" or " AA12 " into a SeatID.  Row
// letters are case-insensitive and surrounding whitespace is ignored.
func ParseSeatID(raw string) (SeatID, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	split := 0
	for split < len(s) && s[split] >= 'A' && s[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(s) {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	row, ok := RowIndex(s[:split])
	if !ok {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	col, err := strconv.Atoi(s[split:])
	if err != nil || col < 1 {
		return SeatID{}, fmt.Errorf("%w: %q", ErrInvalidSeat, raw)
	}
	return SeatID{Row: row, Col: col - 1}, nil
}

// ParseSeatIDs parses every key and collapses duplicates.  The result is
// sorted so callers get a stable order regardless of request order.
func ParseSeatIDs(raw []string) ([]SeatID, error) {
	set := make(SeatSet, len(raw))
	for _, r := range raw {
		id, err := ParseSeatID(r)
		if err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set.Sorted(), nil
}

// RowLabel converts a zero-based row index to A, B, ..., Z, AA, AB, ...
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []byte{}
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex is the inverse of RowLabel.  Only upper-case ASCII letters are
// accepted.
func RowIndex(label string) (int, bool) {
	if label == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// SeatSet is an unordered set of seats.
type SeatSet map[SeatID]struct{}

// NewSeatSet builds a set from the given seats.
func NewSeatSet(seats ...SeatID) SeatSet {
	set := make(SeatSet, len(seats))
	for _, s := range seats {
		set.Add(s)
	}
	return set
}

func (s SeatSet) Add(id SeatID)      { s[id] = struct{}{} }
func (s SeatSet) Has(id SeatID) bool { _, ok := s[id]; return ok }

// AddAll merges other into s.
func (s SeatSet) AddAll(other []SeatID) {
	for _, id := range other {
		s[id] = struct{}{}
	}
}

// Intersect returns the members of seats that are in s, sorted.
func (s SeatSet) Intersect(seats []SeatID) []SeatID {
	var out []SeatID
	for _, id := range seats {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	SortSeats(out)
	return out
}

// Sorted returns the members ordered by row, then column.
func (s SeatSet) Sorted() []SeatID {
	out := make([]SeatID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	SortSeats(out)
	return out
}

// Keys returns the sorted string keys of the set.
func (s SeatSet) Keys() []string {
	return SeatKeys(s.Sorted())
}

// SortSeats sorts in place by row, then column.
func SortSeats(seats []SeatID) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].Less(seats[j]) })
}

// SeatKeys renders each seat as its string key, preserving order.
func SeatKeys(seats []SeatID) []string {
	keys := make([]string, len(seats))
	for i, s := range seats {
		keys[i] = s.String()
	}
	return keys
}

// Grid is the fixed seating layout of a show.
type Grid struct {
	Rows int
	Cols int
}

// Contains reports whether the seat lies inside the grid.
func (g Grid) Contains(id SeatID) bool {
	return id.Row >= 0 && id.Row < g.Rows && id.Col >= 0 && id.Col < g.Cols
}

// Validate returns ErrInvalidSeat naming the first seat outside the grid.
func (g Grid) Validate(seats []SeatID) error {
	for _, id := range seats {
		if !g.Contains(id) {
			return fmt.Errorf("%w: %s is outside the %dx%d grid", ErrInvalidSeat, id, g.Rows, g.Cols)
		}
	}
	return nil
}

// Seats enumerates every seat of the grid in row-major order.
func (g Grid) Seats() []SeatID {
	out := make([]SeatID, 0, g.Rows*g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			out = append(out, SeatID{Row: r, Col: c})
		}
	}
	return out
}
