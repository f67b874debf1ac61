package quiz

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// DecodeTests parses either a single test object or an array of tests.
func DecodeTests(b []byte) ([]Test, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var many []Test
		if err := json.Unmarshal(b, &many); err != nil {
			return nil, errors.Wrap(err, "decode tests")
		}
		return many, nil
	}
	var one Test
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, errors.Wrap(err, "decode test")
	}
	return []Test{one}, nil
}

func LoadTests(path string) ([]Test, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tests, err := DecodeTests(b)
	return tests, errors.Wrap(err, path)
}
