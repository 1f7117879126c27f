package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// typeSpec is the on-disk form of a type declaration. YAML and JSON are
// both accepted (JSON is a subset of YAML).
type typeSpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Attributes map[string]string `yaml:"attributes"`
	Elem       *typeSpec         `yaml:"elem"`
	Fields     []fieldSpec       `yaml:"fields"`
	Labels     []string          `yaml:"labels"`
}

type fieldSpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Attributes map[string]string `yaml:"attributes"`
	Elem       *typeSpec         `yaml:"elem"`
	Fields     []fieldSpec       `yaml:"fields"`
	Labels     []string          `yaml:"labels"`
}

// Parse decodes a type declaration from YAML or JSON bytes. A spec with
// fields but no explicit type is a record.
func Parse(data []byte) (Type, error) {
	var spec typeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Type{}, fmt.Errorf("failed to parse type declaration: %w", err)
	}
	return spec.resolve()
}

// ParseFile decodes a type declaration from a file.
func ParseFile(path string) (Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Type{}, fmt.Errorf("failed to read type declaration %s: %w", path, err)
	}
	ty, err := Parse(data)
	if err != nil {
		return Type{}, fmt.Errorf("%s: %w", path, err)
	}
	return ty, nil
}

func (s *typeSpec) resolve() (Type, error) {
	ty, err := resolveType(s.Type, s.Elem, s.Fields, s.Labels)
	if err != nil {
		return Type{}, err
	}
	if s.Name != "" {
		ty = ty.WithName(s.Name)
	}
	ty = withAttrMap(ty, s.Attributes)
	return ty, nil
}

func resolveType(name string, elem *typeSpec, fields []fieldSpec, labels []string) (Type, error) {
	if name == "" {
		if len(fields) > 0 {
			name = "record"
		} else {
			return Type{}, fmt.Errorf("type declaration is missing a type")
		}
	}
	switch name {
	case "null":
		return Null(), nil
	case "bool":
		return Bool(), nil
	case "int64", "int":
		return Int64(), nil
	case "uint64", "uint":
		return Uint64(), nil
	case "double", "float":
		return Double(), nil
	case "duration":
		return Duration(), nil
	case "time", "timestamp":
		return Time(), nil
	case "string":
		return String_(), nil
	case "ip":
		return IP(), nil
	case "subnet":
		return Subnet(), nil
	case "enum", "enumeration":
		if len(labels) == 0 {
			return Type{}, fmt.Errorf("enumeration type requires labels")
		}
		return Enum(labels...), nil
	case "list":
		if elem == nil {
			return Type{}, fmt.Errorf("list type requires an elem declaration")
		}
		inner, err := elem.resolve()
		if err != nil {
			return Type{}, err
		}
		return List(inner), nil
	case "record":
		out := make([]Field, 0, len(fields))
		seen := make(map[string]struct{}, len(fields))
		for _, f := range fields {
			if f.Name == "" {
				return Type{}, fmt.Errorf("record field is missing a name")
			}
			if _, dup := seen[f.Name]; dup {
				return Type{}, fmt.Errorf("duplicate record field %q", f.Name)
			}
			seen[f.Name] = struct{}{}
			ft, err := resolveType(f.Type, f.Elem, f.Fields, f.Labels)
			if err != nil {
				return Type{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			ft = withAttrMap(ft, f.Attributes)
			out = append(out, Field{Name: f.Name, Type: ft})
		}
		return Record(out...), nil
	}
	return Type{}, fmt.Errorf("unknown type %q", name)
}

func withAttrMap(ty Type, attrs map[string]string) Type {
	if len(attrs) == 0 {
		return ty
	}
	// Stable order keeps declarations comparable across loads.
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		out = append(out, Attribute{Key: k, Value: attrs[k]})
	}
	return ty.WithAttrs(out...)
}
