package ot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrMalformedOperation is returned when an encoded operation cannot be decoded.
var ErrMalformedOperation = errors.New("malformed operation")

// wireOperation is the persisted shape of an operation. Field names follow
// the attribute encoding: sl/so start, ld/od deltas, ol/oo insert origin.
type wireOperation struct {
	Type         string         `json:"type"             mapstructure:"type"`
	StartLine    int            `json:"sl,omitempty"     mapstructure:"sl"`
	StartOffset  int            `json:"so,omitempty"     mapstructure:"so"`
	LineDelta    int            `json:"ld,omitempty"     mapstructure:"ld"`
	OffsetDelta  int            `json:"od,omitempty"     mapstructure:"od"`
	Text         string         `json:"text,omitempty"   mapstructure:"text"`
	OriginLine   int            `json:"ol,omitempty"     mapstructure:"ol"`
	OriginOffset int            `json:"oo,omitempty"     mapstructure:"oo"`
	First        *wireOperation `json:"first,omitempty"  mapstructure:"first"`
	Second       *wireOperation `json:"second,omitempty" mapstructure:"second"`
}

func toWire(op Operation) (*wireOperation, error) {
	switch o := op.(type) {
	case NoOp:
		return &wireOperation{Type: KindNoOp.String()}, nil
	case Insert:
		w := spanToWire(KindInsert, o.span)
		w.OriginLine = o.origin.Line
		w.OriginOffset = o.origin.Offset

		return w, nil
	case Delete:
		return spanToWire(KindDelete, o.span), nil
	case Split:
		first, err := toWire(o.first)
		if err != nil {
			return nil, err
		}

		second, err := toWire(o.second)
		if err != nil {
			return nil, err
		}

		return &wireOperation{Type: KindSplit.String(), First: first, Second: second}, nil
	default:
		return nil, fmt.Errorf("encode %T: %w", op, ErrUnsupportedOperation)
	}
}

func spanToWire(k Kind, s span) *wireOperation {
	return &wireOperation{
		Type:        k.String(),
		StartLine:   s.start.Line,
		StartOffset: s.start.Offset,
		LineDelta:   s.lineDelta,
		OffsetDelta: s.offsetDelta,
		Text:        s.text,
	}
}

func fromWire(w *wireOperation) (Operation, error) {
	if w == nil {
		return nil, fmt.Errorf("missing operation: %w", ErrMalformedOperation)
	}

	start := Pos(w.StartLine, w.StartOffset)

	switch w.Type {
	case KindNoOp.String():
		return NoOp{}, nil
	case KindInsert.String():
		return NewInsert(start, w.LineDelta, w.OffsetDelta, w.Text, Pos(w.OriginLine, w.OriginOffset))
	case KindDelete.String():
		return NewDelete(start, w.LineDelta, w.OffsetDelta, w.Text)
	case KindSplit.String():
		first, err := fromWire(w.First)
		if err != nil {
			return nil, fmt.Errorf("split first: %w", err)
		}

		second, err := fromWire(w.Second)
		if err != nil {
			return nil, fmt.Errorf("split second: %w", err)
		}

		return NewSplit(first, second), nil
	default:
		return nil, fmt.Errorf("type %q: %w", w.Type, ErrMalformedOperation)
	}
}

// MarshalOperation encodes op as JSON.
func MarshalOperation(op Operation) ([]byte, error) {
	w, err := toWire(op)
	if err != nil {
		return nil, err
	}

	return json.Marshal(w)
}

// UnmarshalOperation decodes and validates a JSON encoded operation.
func UnmarshalOperation(data []byte) (Operation, error) {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOperation, err)
	}

	return fromWire(&w)
}

// Attributes encodes op as an attribute map. Split halves nest under
// "first" and "second".
func Attributes(op Operation) (map[string]any, error) {
	w, err := toWire(op)
	if err != nil {
		return nil, err
	}

	return wireAttributes(w), nil
}

func wireAttributes(w *wireOperation) map[string]any {
	attrs := map[string]any{"type": w.Type}

	switch w.Type {
	case KindInsert.String(), KindDelete.String():
		attrs["sl"] = w.StartLine
		attrs["so"] = w.StartOffset
		attrs["ld"] = w.LineDelta
		attrs["od"] = w.OffsetDelta
		attrs["text"] = w.Text

		if w.Type == KindInsert.String() {
			attrs["ol"] = w.OriginLine
			attrs["oo"] = w.OriginOffset
		}
	case KindSplit.String():
		attrs["first"] = wireAttributes(w.First)
		attrs["second"] = wireAttributes(w.Second)
	}

	return attrs
}

// DecodeAttributes builds an operation from an attribute map such as the one
// produced by Attributes. Numeric attributes may also be given as strings.
func DecodeAttributes(attrs map[string]any) (Operation, error) {
	var w wireOperation

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &w,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(attrs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOperation, err)
	}

	return fromWire(&w)
}
