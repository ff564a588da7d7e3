package plan

import "strings"

// Reference is one deferred reference found in a property value.
type Reference struct {
	// Raw is the reference as written, "${...}" included.
	Raw string
	// ID is the referenced resource, parameter or pseudo parameter. Empty for lookups.
	ID   string
	Attr string

	LookupKind string
	LookupName string
}

// IsLookup reports whether the reference names an external resource.
func (r Reference) IsLookup() bool {
	return r.LookupKind != ""
}

// cdkTokenPrefix starts the string encoding of an unresolved CDK token.
const cdkTokenPrefix = "${Token["

// IsToken reports whether the reference is an unresolved CDK token rather than a plan id.
func (r Reference) IsToken() bool {
	return strings.HasPrefix(r.Raw, cdkTokenPrefix)
}

// IsPseudo reports whether the reference is a pseudo parameter such as AWS::Region.
func (r Reference) IsPseudo() bool {
	return strings.HasPrefix(r.ID, "AWS::")
}

// Segment is a literal run or a reference of a template value.
type Segment struct {
	Literal string
	Ref     *Reference
}

// Parse splits value into literal and reference segments. Lookup names may themselves hold
// references ("${Lookup:S3WebsiteHostedZone:${AWS::Region}}"); the lookup is one segment.
// Escaped text ("${!") stays in the literal as written.
func Parse(value string) []Segment {
	var out []Segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, Segment{Literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(value); {
		if strings.HasPrefix(value[i:], literalMarker) {
			lit.WriteString(literalMarker)
			i += len(literalMarker)
			continue
		}
		if !strings.HasPrefix(value[i:], "${") {
			lit.WriteByte(value[i])
			i++
			continue
		}
		end := closing(value, i)
		if end < 0 {
			lit.WriteString(value[i:])
			break
		}
		flush()
		raw := value[i : end+1]
		ref := parseReference(raw)
		out = append(out, Segment{Ref: &ref})
		i = end + 1
	}
	flush()
	return out
}

// References returns the references of value in order of appearance.
func References(value string) []Reference {
	var out []Reference
	for _, seg := range Parse(value) {
		if seg.Ref != nil {
			out = append(out, *seg.Ref)
		}
	}
	return out
}

// Sole returns the reference when value is exactly one reference.
func Sole(value string) (Reference, bool) {
	segs := Parse(value)
	if len(segs) != 1 || segs[0].Ref == nil {
		return Reference{}, false
	}
	return *segs[0].Ref, true
}

// closing returns the index of the brace closing the "${" at start, or -1.
func closing(value string, start int) int {
	depth := 0
	for i := start; i < len(value); i++ {
		switch {
		case strings.HasPrefix(value[i:], literalMarker):
			i += len(literalMarker) - 1
		case strings.HasPrefix(value[i:], "${"):
			depth++
			i++
		case value[i] == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseReference(raw string) Reference {
	inner := raw[2 : len(raw)-1]
	ref := Reference{Raw: raw}

	if rest, ok := strings.CutPrefix(inner, "Lookup:"); ok {
		if sep := lookupSeparator(rest); sep >= 0 {
			ref.LookupKind = rest[:sep]
			ref.LookupName = rest[sep+1:]
			return ref
		}
	}
	if strings.HasPrefix(inner, "AWS::") {
		ref.ID = inner
		return ref
	}
	if dot := strings.IndexByte(inner, '.'); dot >= 0 {
		ref.ID, ref.Attr = inner[:dot], inner[dot+1:]
		return ref
	}
	ref.ID = inner
	return ref
}

// lookupSeparator finds the colon between kind and name: the last single colon outside any
// nested reference. Kinds may contain "::".
func lookupSeparator(s string) int {
	sep, depth := -1, 0
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], literalMarker):
			i += len(literalMarker) - 1
		case strings.HasPrefix(s[i:], "${"):
			depth++
			i++
		case s[i] == '}':
			depth--
		case s[i] == ':' && depth == 0:
			if i+1 < len(s) && s[i+1] == ':' {
				i++
				continue
			}
			sep = i
		}
	}
	return sep
}
