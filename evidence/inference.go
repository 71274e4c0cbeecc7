package evidence

import "github.com/valyala/fastjson"

// Inference folds a stream of observations into one summary. The fold is
// order-independent because Join is, apart from object field order, which
// follows first observation.
type Inference struct {
	state *U
	count int
}

func NewInference() *Inference {
	return &Inference{state: Empty()}
}

func (inf *Inference) Observe(v *fastjson.Value) error {
	u, err := Observe(v)
	if err != nil {
		return err
	}
	inf.state = Join(inf.state, u)
	inf.count++
	return nil
}

func (inf *Inference) ObserveBytes(b []byte) error {
	u, err := ObserveBytes(b)
	if err != nil {
		return err
	}
	inf.state = Join(inf.state, u)
	inf.count++
	return nil
}

func (inf *Inference) ObserveAny(v any) error {
	u, err := ObserveAny(v)
	if err != nil {
		return err
	}
	inf.state = Join(inf.state, u)
	inf.count++
	return nil
}

// State returns the accumulated summary. Callers that want to keep observing
// afterwards should Clone before handing it to the normalizer, which rewrites
// in place.
func (inf *Inference) State() *U {
	return inf.state
}

// Samples reports how many top-level values were observed.
func (inf *Inference) Samples() int {
	return inf.count
}
