package trialdata

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeCSV reads the column named variable from a CSV file with a header
// row.
func decodeCSV(r io.Reader, variable string) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), variable) {
			col = i
			break
		}
	}

	if col < 0 {
		return nil, fmt.Errorf("%w: no CSV column %q", ErrVariableNotFound,
			variable)
	}

	var values []float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		field := strings.TrimSpace(record[col])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not a number",
				ErrMalformed, line, field)
		}

		values = append(values, v)
	}

	return values, nil
}

// decodeJSON reads the array stored under variable in a JSON object.
func decodeJSON(r io.Reader, variable string) ([]float64, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	raw, ok := doc[variable]
	if !ok {
		return nil, fmt.Errorf("%w: no JSON key %q", ErrVariableNotFound,
			variable)
	}

	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, variable, err)
	}

	return values, nil
}

// decodeYAML reads the sequence stored under variable in a YAML mapping.
func decodeYAML(r io.Reader, variable string) ([]float64, error) {
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	node, ok := doc[variable]
	if !ok {
		return nil, fmt.Errorf("%w: no YAML key %q", ErrVariableNotFound,
			variable)
	}

	var values []float64
	if err := node.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, variable, err)
	}

	return values, nil
}
