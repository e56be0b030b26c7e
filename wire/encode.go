package wire

import (
	"encoding/binary"
	"math"
	"strconv"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/i18n"
)

// Encode serializes v against the named struct's plan. The transform is
// pure: it reads the immutable plan, never mutates shared state, and on
// error the partial buffer is discarded.
func (p *Plan) Encode(typeName string, v any) ([]byte, error) {
	data, _, err := p.encode(typeName, v, false)
	return data, err
}

// EncodeWithMeta additionally reports per-field presence: PresenceSeen for
// values supplied by the caller, PresenceDefaultApplied where the default
// literal was substituted into the stream. After Decode the two are
// indistinguishable, so this is the only point where the distinction
// still exists.
func (p *Plan) EncodeWithMeta(typeName string, v any) ([]byte, packetc.PresenceMap, error) {
	return p.encode(typeName, v, true)
}

func (p *Plan) encode(typeName string, v any, meta bool) ([]byte, packetc.PresenceMap, error) {
	sp, ok := p.structs[typeName]
	if !ok {
		return nil, nil, encIssue(packetc.CodeUnknownName, "/", "no struct named '"+typeName+"' in schema")
	}
	e := &encoder{}
	if meta {
		e.presence = packetc.PresenceMap{}
	}
	if err := e.encodeStruct(sp, v, ""); err != nil {
		return nil, nil, err
	}
	return e.buf, e.presence, nil
}

type encoder struct {
	buf      []byte
	presence packetc.PresenceMap
}

func encIssue(code, path, hint string) error {
	return packetc.Issues{packetc.Issue{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Offset:  -1,
	}}
}

func (e *encoder) mark(path string, fl packetc.Presence) {
	if e.presence == nil {
		return
	}
	if path == "" {
		path = "/"
	}
	e.presence[path] |= fl
}

func (e *encoder) putU32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) putU64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *encoder) putLen(n int, path string) error {
	if n < 0 || int64(n) > math.MaxUint32 {
		return encIssue(packetc.CodeOverflow, path, "length does not fit in a u32 prefix")
	}
	e.putU32(uint32(n))
	return nil
}

// encodeStruct writes fields strictly in ordinal order: bare value for
// required fields, default substitution for unset defaulted fields, and a
// presence byte for optional fields.
func (e *encoder) encodeStruct(sp *structPlan, v any, path string) error {
	m, ok := v.(map[string]any)
	if !ok {
		return encIssue(packetc.CodeInvalidType, orRoot(path), "expected map[string]any for struct "+sp.name)
	}
	for k := range m {
		if !sp.hasField(k) {
			return encIssue(packetc.CodeInvalidType, orRoot(path)+"/"+k, "unknown field '"+k+"' of struct "+sp.name)
		}
	}
	for _, f := range sp.fields {
		fpath := path + "/" + f.name
		val, set := m[f.name]
		switch f.mode {
		case fieldRequired:
			if !set {
				return encIssue(packetc.CodeInvalidType, fpath, "required field unset")
			}
			e.mark(fpath, packetc.PresenceSeen)
			if err := e.encodeNode(f.elem, val, fpath); err != nil {
				return err
			}
		case fieldDefaulted:
			// Encode-time substitution: the default lands in the byte
			// stream, not a marker.
			if !set {
				val = f.def
				e.mark(fpath, packetc.PresenceDefaultApplied)
			} else {
				e.mark(fpath, packetc.PresenceSeen)
			}
			if err := e.encodeNode(f.elem, val, fpath); err != nil {
				return err
			}
		case fieldOptional:
			if !set {
				e.buf = append(e.buf, 0)
				continue
			}
			e.buf = append(e.buf, 1)
			e.mark(fpath, packetc.PresenceSeen)
			if err := e.encodeNode(f.elem, val, fpath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (sp *structPlan) hasField(name string) bool {
	for _, f := range sp.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func (e *encoder) encodeNode(n *node, v any, path string) error {
	switch n.kind {
	case nodeBool:
		b, ok := v.(bool)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if b {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
		return nil

	case nodeInt32:
		iv, ok := coerceInt(v, math.MinInt32, math.MaxInt32)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU32(uint32(int32(iv)))
		return nil

	case nodeUint32:
		uv, ok := coerceUint(v, math.MaxUint32)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU32(uint32(uv))
		return nil

	case nodeInt64:
		iv, ok := coerceInt(v, math.MinInt64, math.MaxInt64)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU64(uint64(iv))
		return nil

	case nodeUint64:
		uv, ok := coerceUint(v, math.MaxUint64)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU64(uv)
		return nil

	case nodeFloat:
		fv, ok := coerceFloat(v)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU32(math.Float32bits(float32(fv)))
		return nil

	case nodeDouble:
		fv, ok := coerceFloat(v)
		if !ok {
			return typeMismatch(n, v, path)
		}
		e.putU64(math.Float64bits(fv))
		return nil

	case nodeString:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if err := e.putLen(len(s), path); err != nil {
			return err
		}
		e.buf = append(e.buf, s...)
		return nil

	case nodeBytes:
		b, ok := v.([]byte)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if err := e.putLen(len(b), path); err != nil {
			return err
		}
		e.buf = append(e.buf, b...)
		return nil

	case nodeEnum:
		iv, ok := coerceInt(v, math.MinInt64, math.MaxInt64)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if _, member := n.enum.Values[iv]; !member {
			return encIssue(packetc.CodeInvalidEnumValue, path,
				strconv.FormatInt(iv, 10)+" is not a variant of "+n.enum.Name)
		}
		switch n.enum.Underlying {
		case "int32", "uint32":
			e.putU32(uint32(iv))
		default:
			e.putU64(uint64(iv))
		}
		return nil

	case nodeList:
		items, ok := v.([]any)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if err := e.putLen(len(items), path); err != nil {
			return err
		}
		for i, item := range items {
			ipath := path + "/" + strconv.Itoa(i)
			e.mark(ipath, packetc.PresenceSeen)
			if err := e.encodeNode(n.elem, item, ipath); err != nil {
				return err
			}
		}
		return nil

	case nodeMap:
		m, ok := v.(*packetc.Map)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if err := e.putLen(m.Len(), path); err != nil {
			return err
		}
		for i, entry := range m.Entries() {
			ipath := path + "/" + strconv.Itoa(i)
			if err := e.encodeNode(n.key, entry.Key, ipath); err != nil {
				return err
			}
			if err := e.encodeNode(n.val, entry.Value, ipath); err != nil {
				return err
			}
		}
		return nil

	case nodeUnion:
		u, ok := v.(packetc.Union)
		if !ok {
			return typeMismatch(n, v, path)
		}
		if u.Index < 0 || u.Index >= len(n.members) {
			return encIssue(packetc.CodeDiscriminantOutOfRange, path,
				"member index "+strconv.Itoa(u.Index)+" of "+n.typeName)
		}
		e.buf = append(e.buf, byte(u.Index))
		return e.encodeNode(n.members[u.Index], u.Value, path)

	case nodeStruct:
		return e.encodeStruct(n.ref, v, path)
	}
	return encIssue(packetc.CodeInvalidType, path, "unsupported plan node")
}

func typeMismatch(n *node, v any, path string) error {
	return packetc.Issues{packetc.Issue{
		Path:    path,
		Code:    packetc.CodeInvalidType,
		Message: i18n.T(packetc.CodeInvalidType, nil),
		Hint:    "host value does not match " + n.typeName,
		Offset:  -1,
		Params:  map[string]any{"expected": n.typeName},
	}}
}

// coerceInt accepts the canonical signed widths plus untyped int, range
// checked. Unsigned inputs are accepted while they fit.
func coerceInt(v any, min, max int64) (int64, bool) {
	var iv int64
	switch t := v.(type) {
	case int:
		iv = int64(t)
	case int32:
		iv = int64(t)
	case int64:
		iv = t
	case uint32:
		iv = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		iv = int64(t)
	default:
		return 0, false
	}
	if iv < min || iv > max {
		return 0, false
	}
	return iv, true
}

func coerceUint(v any, max uint64) (uint64, bool) {
	var uv uint64
	switch t := v.(type) {
	case uint32:
		uv = uint64(t)
	case uint64:
		uv = t
	case int:
		if t < 0 {
			return 0, false
		}
		uv = uint64(t)
	case int32:
		if t < 0 {
			return 0, false
		}
		uv = uint64(t)
	case int64:
		if t < 0 {
			return 0, false
		}
		uv = uint64(t)
	default:
		return 0, false
	}
	if uv > max {
		return 0, false
	}
	return uv, true
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}
