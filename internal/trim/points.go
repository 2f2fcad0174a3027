package trim

// Interval is a silent region of the analyzed stream, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Points is the trim decision for one recording.
type Points struct {
	Start float64
	End   float64
}

// Spans reports whether the points cover the full duration within the edge
// tolerance, meaning there is nothing meaningful to cut.
func (p Points) Spans(total, edge float64) bool {
	return p.Start < edge && total-p.End < edge
}

// DecidePoints applies the trim policy to an ordered list of silent
// intervals:
//
//   - a leading interval that starts inside the edge tolerance moves the
//     trim start to that interval's end;
//   - a trailing interval that ends inside the edge tolerance of the total
//     duration moves the trim end to that interval's start;
//   - a degenerate result (start >= end, the whole file silent) falls back
//     to the untouched full range.
func DecidePoints(intervals []Interval, total, edge float64) Points {
	points := Points{Start: 0, End: total}
	if len(intervals) == 0 {
		return points
	}

	if first := intervals[0]; first.Start < edge {
		points.Start = first.End
	}
	if last := intervals[len(intervals)-1]; total-last.End < edge {
		points.End = last.Start
	}

	if points.Start >= points.End {
		return Points{Start: 0, End: total}
	}
	return points
}
