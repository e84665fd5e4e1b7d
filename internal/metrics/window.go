package metrics

import "time"

// window is a fixed-capacity ring of outcomes in insertion order.
// It grows by appending until full, then overwrites the oldest slot.
type window struct {
	buf   []Outcome
	start int
	limit int
}

func newWindow(capacity int) *window {
	return &window{limit: capacity}
}

func (w *window) push(o Outcome) {
	if len(w.buf) < w.limit {
		w.buf = append(w.buf, o)
		return
	}
	w.buf[w.start] = o
	w.start = (w.start + 1) % w.limit
}

func (w *window) len() int {
	return len(w.buf)
}

func (w *window) at(i int) Outcome {
	return w.buf[(w.start+i)%len(w.buf)]
}

// since copies the outcomes observed strictly after cutoff, oldest first.
func (w *window) since(cutoff time.Time) []Outcome {
	out := make([]Outcome, 0)
	for i := 0; i < len(w.buf); i++ {
		o := w.at(i)
		if o.ObservedAt.After(cutoff) {
			out = append(out, o)
		}
	}
	return out
}
