package domain

import "fmt"

// RevlogType classifies a revision-log entry by the kind of review that
// produced it.
type RevlogType int

const (
	RevlogLearn       RevlogType = 0
	RevlogReview      RevlogType = 1
	RevlogRelearn     RevlogType = 2
	RevlogEarlyReview RevlogType = 3
)

// String returns the name of the revlog type.
func (t RevlogType) String() string {
	switch t {
	case RevlogLearn:
		return "Learn"
	case RevlogReview:
		return "Review"
	case RevlogRelearn:
		return "Relearn"
	case RevlogEarlyReview:
		return "EarlyReview"
	}
	return fmt.Sprintf("RevlogType(%d)", int(t))
}

// RevlogEntry is one audit record of an answered card. ID is the epoch
// millisecond of the answer and doubles as the primary key. A negative Ivl
// means seconds until the next learning step rather than days.
type RevlogEntry struct {
	ID        int64
	CID       int64
	USN       int
	Ease      int
	Ivl       int
	LastIvl   int
	Factor    int
	TimeTaken int64
	Type      RevlogType
}
