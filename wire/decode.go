package wire

import (
	"encoding/binary"
	"math"
	"strconv"

	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/i18n"
)

// Decode deserializes data against the named struct's plan, consuming the
// bytes strictly in ordinal order. Any short read, out-of-range
// discriminant or unknown enum value is returned as a typed failure naming
// the field path and byte offset; decode never panics and never substitutes
// data. Trailing bytes after the value are rejected.
func (p *Plan) Decode(typeName string, data []byte) (any, error) {
	dec, err := p.decode(typeName, data, false)
	if err != nil {
		return nil, err
	}
	return dec.Value, nil
}

// DecodeWithMeta is Decode plus presence metadata: every field whose value
// was materialized on the wire is marked PresenceSeen. Absent optional
// fields carry no mark; that is the observable difference between
// "absent" and any defaulted value.
func (p *Plan) DecodeWithMeta(typeName string, data []byte) (packetc.Decoded, error) {
	return p.decode(typeName, data, true)
}

func (p *Plan) decode(typeName string, data []byte, meta bool) (packetc.Decoded, error) {
	sp, ok := p.structs[typeName]
	if !ok {
		return packetc.Decoded{}, encIssue(packetc.CodeUnknownName, "/", "no struct named '"+typeName+"' in schema")
	}
	d := &decoder{data: data}
	if meta {
		d.presence = packetc.PresenceMap{}
	}
	v, err := d.decodeStruct(sp, "")
	if err != nil {
		return packetc.Decoded{}, err
	}
	if d.off != len(d.data) {
		return packetc.Decoded{}, d.fail(packetc.CodeTrailingData, "/",
			strconv.Itoa(len(d.data)-d.off)+" byte(s) left after value")
	}
	return packetc.Decoded{Value: v, Presence: d.presence}, nil
}

type decoder struct {
	data     []byte
	off      int
	presence packetc.PresenceMap
}

func (d *decoder) fail(code, path, hint string) error {
	return packetc.Issues{packetc.Issue{
		Path:    orRoot(path),
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Offset:  int64(d.off),
	}}
}

func (d *decoder) mark(path string) {
	if d.presence == nil {
		return
	}
	d.presence[orRoot(path)] |= packetc.PresenceSeen
}

// take consumes n bytes or fails with the current offset.
func (d *decoder) take(n int, path string) ([]byte, error) {
	if len(d.data)-d.off < n {
		return nil, d.fail(packetc.CodeTruncated, path,
			"need "+strconv.Itoa(n)+" byte(s), have "+strconv.Itoa(len(d.data)-d.off))
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) takeU32(path string) (uint32, error) {
	b, err := d.take(4, path)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) takeU64(path string) (uint64, error) {
	b, err := d.take(8, path)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) decodeStruct(sp *structPlan, path string) (map[string]any, error) {
	out := make(map[string]any, len(sp.fields))
	for _, f := range sp.fields {
		fpath := path + "/" + f.name
		if f.mode == fieldOptional {
			flag, err := d.take(1, fpath)
			if err != nil {
				return nil, err
			}
			switch flag[0] {
			case 0:
				continue // absent: no further bytes for this field
			case 1:
			default:
				return nil, d.fail(packetc.CodeInvalidType, fpath,
					"presence flag must be 0 or 1, got "+strconv.Itoa(int(flag[0])))
			}
		}
		v, err := d.decodeNode(f.elem, fpath)
		if err != nil {
			return nil, err
		}
		d.mark(fpath)
		out[f.name] = v
	}
	return out, nil
}

func (d *decoder) decodeNode(n *node, path string) (any, error) {
	switch n.kind {
	case nodeBool:
		b, err := d.take(1, path)
		if err != nil {
			return nil, err
		}
		switch b[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, d.fail(packetc.CodeInvalidType, path, "bool byte must be 0 or 1")
		}

	case nodeInt32:
		v, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		return int32(v), nil

	case nodeUint32:
		v, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		return v, nil

	case nodeInt64:
		v, err := d.takeU64(path)
		if err != nil {
			return nil, err
		}
		return int64(v), nil

	case nodeUint64:
		return d.takeU64(path)

	case nodeFloat:
		v, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(v), nil

	case nodeDouble:
		v, err := d.takeU64(path)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil

	case nodeString:
		ln, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		b, err := d.take(int(ln), path)
		if err != nil {
			return nil, err
		}
		return string(b), nil

	case nodeBytes:
		ln, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		b, err := d.take(int(ln), path)
		if err != nil {
			return nil, err
		}
		out := make([]byte, ln)
		copy(out, b)
		return out, nil

	case nodeEnum:
		var raw int64
		switch n.enum.Underlying {
		case "int32":
			v, err := d.takeU32(path)
			if err != nil {
				return nil, err
			}
			raw = int64(int32(v))
		case "uint32":
			v, err := d.takeU32(path)
			if err != nil {
				return nil, err
			}
			raw = int64(v)
		default:
			v, err := d.takeU64(path)
			if err != nil {
				return nil, err
			}
			raw = int64(v)
		}
		if _, member := n.enum.Values[raw]; !member {
			return nil, d.fail(packetc.CodeInvalidEnumValue, path,
				strconv.FormatInt(raw, 10)+" is not a variant of "+n.enum.Name)
		}
		return raw, nil

	case nodeList:
		count, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, min(int(count), 1024))
		for i := 0; i < int(count); i++ {
			ipath := path + "/" + strconv.Itoa(i)
			v, err := d.decodeNode(n.elem, ipath)
			if err != nil {
				return nil, err
			}
			d.mark(ipath)
			items = append(items, v)
		}
		return items, nil

	case nodeMap:
		count, err := d.takeU32(path)
		if err != nil {
			return nil, err
		}
		m := packetc.NewMap()
		for i := 0; i < int(count); i++ {
			ipath := path + "/" + strconv.Itoa(i)
			k, err := d.decodeNode(n.key, ipath)
			if err != nil {
				return nil, err
			}
			// A repeated key would collapse into one entry and re-encode to
			// different bytes than were read; surface it instead.
			if _, dup := m.Get(k); dup {
				return nil, d.fail(packetc.CodeDuplicateKey, ipath,
					"key already appeared in this map")
			}
			v, err := d.decodeNode(n.val, ipath)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil

	case nodeUnion:
		disc, err := d.take(1, path)
		if err != nil {
			return nil, err
		}
		idx := int(disc[0])
		if idx >= len(n.members) {
			return nil, d.fail(packetc.CodeDiscriminantOutOfRange, path,
				"discriminant "+strconv.Itoa(idx)+" but "+n.typeName+" has "+strconv.Itoa(len(n.members))+" members")
		}
		v, err := d.decodeNode(n.members[idx], path)
		if err != nil {
			return nil, err
		}
		return packetc.Union{Index: idx, Value: v}, nil

	case nodeStruct:
		return d.decodeStruct(n.ref, path)
	}
	return nil, d.fail(packetc.CodeInvalidType, path, "unsupported plan node")
}
