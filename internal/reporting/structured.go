package reporting

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/fairgraph/api/schemas"
)

type jsonReporter struct {
	w io.WriteCloser
}

func (r *jsonReporter) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *jsonReporter) WriteScores(report *ScoreReport) error {
	return r.encode(report)
}

func (r *jsonReporter) WriteSummary(report *schemas.SummaryReport) error {
	return r.encode(report)
}

func (r *jsonReporter) Close() error {
	return r.w.Close()
}

type yamlReporter struct {
	w io.WriteCloser
}

func (r *yamlReporter) encode(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *yamlReporter) WriteScores(report *ScoreReport) error {
	return r.encode(report)
}

func (r *yamlReporter) WriteSummary(report *schemas.SummaryReport) error {
	return r.encode(report)
}

func (r *yamlReporter) Close() error {
	return r.w.Close()
}
