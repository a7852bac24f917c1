package kv

import (
	"github.com/iamNilotpal/swaydb/pkg/codec"
	"github.com/iamNilotpal/swaydb/pkg/errors"
)

// Encode serializes v into the three fields a SortedIndex entry actually
// stores: a self-describing payload (kind tag + variant fields), the
// Deadline (nil for variants that carry none), and the write Time. The
// block layer treats the payload as opaque bytes; only this package and
// Decode below understand its shape.
func Encode(v Value) (payload []byte, deadline Deadline, t Time) {
	switch val := v.(type) {
	case Put:
		return encodeValueBytes(byte(KindPut), val.Value), val.Deadline, val.Time
	case Remove:
		return []byte{byte(KindRemove)}, val.Deadline, val.Time
	case Update:
		return encodeValueBytes(byte(KindUpdate), val.Value), val.Deadline, val.Time
	case Function:
		buf := []byte{byte(KindFunction)}
		buf = codec.PutUvarint(buf, uint64(len(val.FnID)))
		buf = append(buf, val.FnID...)
		return buf, NoDeadline, val.Time
	case PendingApply:
		buf := []byte{byte(KindPendingApply)}
		buf = codec.PutUvarint(buf, uint64(len(val.Applies)))
		for _, apply := range val.Applies {
			sub, _, _ := Encode(apply)
			buf = codec.PutUvarint(buf, uint64(len(sub)))
			buf = append(buf, sub...)
		}
		return buf, NoDeadline, val.Time
	case Range:
		buf := []byte{byte(KindRange)}
		buf = codec.PutUvarint(buf, uint64(len(val.FromKey)))
		buf = append(buf, val.FromKey...)
		buf = codec.PutUvarint(buf, uint64(len(val.ToKey)))
		buf = append(buf, val.ToKey...)
		if val.FromValue != nil {
			sub, _, _ := Encode(val.FromValue)
			buf = append(buf, 1)
			buf = codec.PutUvarint(buf, uint64(len(sub)))
			buf = append(buf, sub...)
		} else {
			buf = append(buf, 0)
		}
		rangeSub, _, _ := Encode(val.RangeValue)
		buf = codec.PutUvarint(buf, uint64(len(rangeSub)))
		buf = append(buf, rangeSub...)
		return buf, NoDeadline, val.Time
	default:
		return nil, NoDeadline, Time{}
	}
}

func encodeValueBytes(kindByte byte, value []byte) []byte {
	buf := []byte{kindByte}
	buf = codec.PutUvarint(buf, uint64(len(value)))
	buf = append(buf, value...)
	return buf
}

// Decode reverses Encode, reconstructing the concrete Value variant from a
// payload produced by it plus the deadline/time fields the SortedIndex
// entry carried alongside it.
func Decode(payload []byte, deadline Deadline, t Time) (Value, error) {
	if len(payload) < 1 {
		return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "empty key-value payload")
	}
	kind := Kind(payload[0])
	rest := payload[1:]

	switch kind {
	case KindPut:
		value, _, err := decodeValueBytes(rest)
		if err != nil {
			return nil, err
		}
		return Put{Value: value, Deadline: deadline, Time: t}, nil

	case KindRemove:
		return Remove{Deadline: deadline, Time: t}, nil

	case KindUpdate:
		value, _, err := decodeValueBytes(rest)
		if err != nil {
			return nil, err
		}
		return Update{Value: value, Deadline: deadline, Time: t}, nil

	case KindFunction:
		idLen, n, err := codec.Uvarint(rest)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		rest = rest[n:]
		if uint64(len(rest)) < idLen {
			return nil, wrapDecodeErr(nil)
		}
		return Function{FnID: string(rest[:idLen]), Time: t}, nil

	case KindPendingApply:
		count, n, err := codec.Uvarint(rest)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		rest = rest[n:]
		applies := make([]Value, 0, count)
		for i := uint64(0); i < count; i++ {
			subLen, n, err := codec.Uvarint(rest)
			if err != nil {
				return nil, wrapDecodeErr(err)
			}
			rest = rest[n:]
			if uint64(len(rest)) < subLen {
				return nil, wrapDecodeErr(nil)
			}
			sub, err := Decode(rest[:subLen], NoDeadline, t)
			if err != nil {
				return nil, err
			}
			applies = append(applies, sub)
			rest = rest[subLen:]
		}
		return PendingApply{Applies: applies, Time: t}, nil

	case KindRange:
		fromKeyLen, n, err := codec.Uvarint(rest)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		rest = rest[n:]
		if uint64(len(rest)) < fromKeyLen {
			return nil, wrapDecodeErr(nil)
		}
		fromKey := append([]byte{}, rest[:fromKeyLen]...)
		rest = rest[fromKeyLen:]

		toKeyLen, n, err := codec.Uvarint(rest)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		rest = rest[n:]
		if uint64(len(rest)) < toKeyLen {
			return nil, wrapDecodeErr(nil)
		}
		toKey := append([]byte{}, rest[:toKeyLen]...)
		rest = rest[toKeyLen:]

		if len(rest) < 1 {
			return nil, wrapDecodeErr(nil)
		}
		hasFromValue := rest[0] == 1
		rest = rest[1:]

		var fromValue Value
		if hasFromValue {
			subLen, n, err := codec.Uvarint(rest)
			if err != nil {
				return nil, wrapDecodeErr(err)
			}
			rest = rest[n:]
			if uint64(len(rest)) < subLen {
				return nil, wrapDecodeErr(nil)
			}
			fromValue, err = Decode(rest[:subLen], NoDeadline, t)
			if err != nil {
				return nil, err
			}
			rest = rest[subLen:]
		}

		rangeSubLen, n, err := codec.Uvarint(rest)
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		rest = rest[n:]
		if uint64(len(rest)) < rangeSubLen {
			return nil, wrapDecodeErr(nil)
		}
		rangeValue, err := Decode(rest[:rangeSubLen], NoDeadline, t)
		if err != nil {
			return nil, err
		}

		return Range{FromKey: fromKey, ToKey: toKey, FromValue: fromValue, RangeValue: rangeValue, Time: t}, nil

	default:
		return nil, errors.NewIndexError(nil, errors.ErrorCodeIndexCorrupted, "unrecognized key-value kind tag")
	}
}

func decodeValueBytes(buf []byte) ([]byte, int, error) {
	vLen, n, err := codec.Uvarint(buf)
	if err != nil {
		return nil, 0, wrapDecodeErr(err)
	}
	if uint64(len(buf)-n) < vLen {
		return nil, 0, wrapDecodeErr(nil)
	}
	return buf[n : n+int(vLen)], n + int(vLen), nil
}

func wrapDecodeErr(cause error) error {
	return errors.NewIndexError(cause, errors.ErrorCodeIndexCorrupted, "malformed key-value payload")
}
