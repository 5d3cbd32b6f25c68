package verification

import (
	"context"
	"encoding/json"
)

// StubClassifier is a deterministic, no-network classifier for CI and local
// runs without an API key. It returns schema-valid JSON so downstream
// parsing and the match policy exercise the full verification path.
type StubClassifier struct {
	WasteTypeMatch bool
	QuantityMatch  bool
	Confidence     float64
	Err            error
}

func NewStubClassifier() *StubClassifier {
	return &StubClassifier{WasteTypeMatch: true, QuantityMatch: true, Confidence: 0.95}
}

func (s *StubClassifier) VerifyCollection(ctx context.Context, image []byte, wasteType, amount string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	b, err := json.Marshal(Result{
		WasteTypeMatch: s.WasteTypeMatch,
		QuantityMatch:  s.QuantityMatch,
		Confidence:     s.Confidence,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
