package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoStructuredData is returned when none of the samples parse as JSON
var ErrNoStructuredData = errors.New("no structured data in samples")

// RootPath is the path of a sample whose top-level value is not an object
const RootPath = "$"

// Sample is one body to infer from
type Sample struct {
	ID   string
	Body string
}

// Field describes one path of the merged schema
type Field struct {
	Types    []Kind `json:"types"`
	Required bool   `json:"required"`
	Nullable bool   `json:"nullable"`
	Mixed    bool   `json:"mixed"`
}

// Descriptor is the structure shared by a set of samples
type Descriptor struct {
	Fields   map[string]Field `json:"fields"`
	Samples  int              `json:"samples"`
	Excluded []string         `json:"excluded,omitempty"`
}

// Paths returns the field paths in sorted order
func (d Descriptor) Paths() []string {
	paths := make([]string, 0, len(d.Fields))
	for p := range d.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

/* Render writes the descriptor as stable text, one path per line:
 *
 *	a: number, required
 *	b: string, optional, nullable
 */
func (d Descriptor) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "samples: %d", d.Samples)
	if len(d.Excluded) > 0 {
		fmt.Fprintf(&b, " (excluded: %s)", strings.Join(d.Excluded, ", "))
	}
	b.WriteByte('\n')

	for _, path := range d.Paths() {
		f := d.Fields[path]
		names := make([]string, len(f.Types))
		for i, k := range f.Types {
			names[i] = k.String()
		}

		b.WriteString(path)
		b.WriteString(": ")
		b.WriteString(strings.Join(names, "|"))
		if f.Required {
			b.WriteString(", required")
		} else {
			b.WriteString(", optional")
		}
		if f.Nullable {
			b.WriteString(", nullable")
		}
		if f.Mixed {
			b.WriteString(", mixed")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// fieldStats accumulates observations for one path
type fieldStats struct {
	kinds    map[Kind]bool
	present  int // non-null occurrences
	nullable bool
	scope    string
}

/* inference walks parsed samples
 * A path is required when its non-null count equals the number of
 * instances of its scope: the samples for top-level paths, the array
 * elements seen at the nearest enclosing "[]" otherwise
 */
type inference struct {
	fields map[string]*fieldStats
	scopes map[string]int
}

// Infer merges the samples into one descriptor.
// Samples that are not valid JSON are listed in Excluded.
func Infer(samples []Sample) (Descriptor, error) {
	in := inference{
		fields: make(map[string]*fieldStats),
		scopes: make(map[string]int),
	}

	desc := Descriptor{Fields: make(map[string]Field)}
	for _, s := range samples {
		v, err := Parse([]byte(s.Body))
		if err != nil {
			desc.Excluded = append(desc.Excluded, s.ID)
			continue
		}

		desc.Samples++
		in.scopes[""]++
		if v.Kind == Object {
			in.members(v, "", "")
		} else {
			in.walk(v, RootPath, "")
		}
	}

	if desc.Samples == 0 {
		return desc, ErrNoStructuredData
	}

	for path, st := range in.fields {
		types := make([]Kind, 0, len(st.kinds)+1)
		for k := range st.kinds {
			types = append(types, k)
		}
		if st.nullable {
			types = append(types, Null)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		desc.Fields[path] = Field{
			Types:    types,
			Required: st.present >= in.scopes[st.scope] && st.present > 0,
			Nullable: st.nullable,
			Mixed:    len(st.kinds) > 1,
		}
	}

	return desc, nil
}

func (in *inference) walk(v Value, path, scope string) {
	st, ok := in.fields[path]
	if !ok {
		st = &fieldStats{kinds: make(map[Kind]bool), scope: scope}
		in.fields[path] = st
	}

	if v.Kind == Null {
		st.nullable = true
		return
	}
	st.kinds[v.Kind] = true
	st.present++

	switch v.Kind {
	case Object:
		in.members(v, path, scope)
	case Array:
		elem := path + "[]"
		in.scopes[elem] += len(v.Items)
		for _, item := range v.Items {
			in.walk(item, elem, elem)
		}
	}
}

// members walks object keys; a repeated key counts once, the last one wins
func (in *inference) members(v Value, path, scope string) {
	last := make(map[string]int, len(v.Members))
	for i, m := range v.Members {
		last[m.Key] = i
	}
	for i, m := range v.Members {
		if last[m.Key] != i {
			continue
		}
		in.walk(m.Value, join(path, m.Key), scope)
	}
}

func join(path, key string) string {
	if key == "" || strings.ContainsAny(key, `.[]"`) || key == RootPath {
		return path + "[" + strconv.Quote(key) + "]"
	}
	if path == "" {
		return key
	}
	return path + "." + key
}
