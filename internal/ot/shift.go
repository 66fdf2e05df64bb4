package ot

// shiftRight moves p, which must not precede by.start, past the text inserted
// by by. When p shares the insert's start line and the insert spans lines, the
// tail of that line is stitched onto the last inserted line.
func shiftRight(p Position, by span) Position {
	if p.Line != by.start.Line {
		return Position{Line: p.Line + by.lineDelta, Offset: p.Offset}
	}

	if by.lineDelta == 0 {
		return Position{Line: p.Line, Offset: p.Offset + by.offsetDelta}
	}

	return Position{
		Line:   p.Line + by.lineDelta,
		Offset: p.Offset - by.start.Offset + by.offsetDelta,
	}
}

// shiftLeft moves p, which must not precede by.End(), back over the text
// removed by by.
func shiftLeft(p Position, by span) Position {
	end := by.End()

	if p.Line != end.Line {
		return Position{Line: p.Line - by.lineDelta, Offset: p.Offset}
	}

	if by.lineDelta == 0 {
		return Position{Line: p.Line, Offset: p.Offset - by.offsetDelta}
	}

	return Position{
		Line:   p.Line - by.lineDelta,
		Offset: p.Offset - by.offsetDelta + by.start.Offset,
	}
}
