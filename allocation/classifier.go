/*
classifier.go - Suitability classifier contract

PURPOSE:
  The classifier is an external collaborator: an opaque function from
  an encoded text representation to a (label, confidence) pair. It is
  injected as an interface so the production model, an HTTP inference
  service, or a test stub can be swapped without touching the scorer's
  rule logic.

SEE ALSO:
  - classify/: HTTP client and deterministic heuristic implementations
  - scorer.go: Sole consumer; degrades to rule-only scoring on error
*/
package allocation

import "context"

// Label is the binary verdict of the suitability classifier.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
)

// Prediction is the classifier output: a label and how sure the model
// is about it. Confidence is in [0, 1] and is distinct from the final
// suitability score.
type Prediction struct {
	Label      Label
	Confidence float64
}

// Classifier scores an encoded feature text. Implementations may be
// slow or unreachable; calls carry a context deadline and the scorer
// never propagates a classifier failure to its caller.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (Prediction, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (Prediction, error) {
	return f(ctx, text)
}
