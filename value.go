package glean

import "encoding/json"

// StructuredValue is a normalized JSON document conforming to a Schema.
// A nil value means no valid instance could be produced for a chunk.
type StructuredValue = json.RawMessage

// MergeFunc folds two structured values into one. The accumulator may be
// nil: merge(nil, v) must return v (identity law). Merges must be
// associative. The synthesizer folds left to right in original chunk order,
// so non-commutative merges observe results in input order, not completion
// order.
type MergeFunc func(acc, v StructuredValue) (StructuredValue, error)

// AppendMerge returns a MergeFunc that concatenates the named array field of
// two record values, the usual merge for list-of-records schemas. Fields
// other than the named one keep the accumulator's values.
func AppendMerge(field string) MergeFunc {
	return func(acc, v StructuredValue) (StructuredValue, error) {
		if acc == nil {
			return v, nil
		}

		var accDoc, vDoc map[string]any
		if err := json.Unmarshal(acc, &accDoc); err != nil {
			return nil, Errorf(EINVALID, "merge accumulator is not a JSON object: %v", err)
		}
		if err := json.Unmarshal(v, &vDoc); err != nil {
			return nil, Errorf(EINVALID, "merge value is not a JSON object: %v", err)
		}

		accList, _ := accDoc[field].([]any)
		vList, _ := vDoc[field].([]any)
		accDoc[field] = append(accList, vList...)

		out, err := json.Marshal(accDoc)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}
