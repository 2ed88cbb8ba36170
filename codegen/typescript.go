package codegen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

const tsHeader = "// Code generated by buildgate. DO NOT EDIT.\n"

func renderTS(c Constants) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(tsHeader)
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "export const buildTime = new Date(%q);\n", c.BuildTime.Format(time.RFC3339))
	fmt.Fprintf(&buf, "export const buildId = %q;\n", c.BuildID)

	if c.Custom != nil {
		buf.WriteString("export const custom = ")
		if err := writeTSValue(&buf, c.Custom, 0); err != nil {
			return nil, err
		}
		buf.WriteString(" as const;\n")
	}
	return buf.Bytes(), nil
}

// writeTSValue emits one value as a TypeScript expression. Mappings and
// sequences recurse with sorted keys; time values become Date constructors;
// everything else round-trips through encoding/json, whose output is a
// valid TypeScript literal.
func writeTSValue(buf *bytes.Buffer, value any, depth int) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case time.Time:
		fmt.Fprintf(buf, "new Date(%q)", v.Format(time.RFC3339))
	case map[string]any:
		if len(v) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for _, key := range sortedTSKeys(v) {
			writeIndent(buf, depth+1)
			buf.WriteString(strconv.Quote(key))
			buf.WriteString(": ")
			if err := writeTSValue(buf, v[key], depth+1); err != nil {
				return err
			}
			buf.WriteString(",\n")
		}
		writeIndent(buf, depth)
		buf.WriteString("}")
	case []any:
		if len(v) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for _, element := range v {
			writeIndent(buf, depth+1)
			if err := writeTSValue(buf, element, depth+1); err != nil {
				return err
			}
			buf.WriteString(",\n")
		}
		writeIndent(buf, depth)
		buf.WriteString("]")
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("value of type %T cannot be rendered: %w", value, err)
		}
		buf.Write(encoded)
	}
	return nil
}

func sortedTSKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
