package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// WriteJSON pretty-prints the full variable set as a JSON object.
func WriteJSON(w io.Writer, variables map[string]string) error {
	encoded, err := json.MarshalIndent(variables, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling variables to JSON: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("writing JSON output: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteVariable writes the single named variable's value, one line, no key.
func WriteVariable(w io.Writer, variables map[string]string, name string) error {
	value, ok := variables[name]
	if !ok {
		return fmt.Errorf("unknown variable %q", name)
	}
	_, err := fmt.Fprintln(w, value)
	return err
}

// WriteAll writes every variable as a "key=value" line, sorted by key for
// reproducible output.
func WriteAll(w io.Writer, variables map[string]string) error {
	for _, key := range sortedKeys(variables) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, variables[key]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
