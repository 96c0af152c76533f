// Package strategies implements the two retrieval paths of the hybrid
// engine: cloning the source repository and diffing tags, and downloading
// and comparing released artifacts as the fallback.
package strategies

import "fmt"

// Disqualification is the tagged "this strategy cannot serve this change"
// outcome. It is data the orchestrator branches on, never an error that
// propagates: a disqualified strategy hands control to the next one.
type Disqualification struct {
	Reason string
	Err    error
}

// Disqualify creates a Disqualification. err may be nil.
func Disqualify(reason string, err error) *Disqualification {
	return &Disqualification{Reason: reason, Err: err}
}

func (d *Disqualification) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %v", d.Reason, d.Err)
	}
	return d.Reason
}
