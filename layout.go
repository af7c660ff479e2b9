package fbsql

import "encoding/binary"

const nullIndicatorSize = 2

// ColumnOffsets locates one column inside a message buffer.
type ColumnOffsets struct {
	Value int
	Null  int
}

// Layout is the byte layout of a message buffer for one descriptor set.
type Layout struct {
	Size    int
	Columns []ColumnOffsets
}

func align(n, b int) int {
	if b <= 1 {
		return n
	}
	return (n + b - 1) / b * b
}

// storage returns the number of bytes a column occupies in a buffer and the
// alignment of its first byte.
func storage(d ColumnDescriptor) (length, alignment int) {
	length = int(d.Length)
	alignment = length
	switch d.Type {
	case SQLText:
		alignment = 1
	case SQLVarying:
		length += 2
		alignment = 2
	}
	if alignment < 1 {
		alignment = 1
	}
	return length, alignment
}

// ComputeLayout places every column at its aligned offset followed by a
// 2-byte aligned null indicator. It does not touch any buffer.
func ComputeLayout(descs []ColumnDescriptor) Layout {
	l := Layout{Columns: make([]ColumnOffsets, len(descs))}

	offset := 0
	for i, d := range descs {
		length, alignment := storage(d)

		offset = align(offset, alignment)
		l.Columns[i].Value = offset
		offset += length

		offset = align(offset, nullIndicatorSize)
		l.Columns[i].Null = offset
		offset += nullIndicatorSize
	}

	l.Size = offset
	return l
}

// Message couples a descriptor area with its layout and backing buffer. It
// is what crosses the engine boundary on execute and fetch.
type Message struct {
	Area   *DescriptorArea
	Layout Layout
	Buf    []byte
}

func newMessage() *Message {
	return &Message{Area: newDescriptorArea(initialSlots)}
}

// relayout recomputes the layout from the area and grows the buffer to fit.
func (m *Message) relayout() {
	m.Layout = ComputeLayout(m.Area.Columns())
	m.ensure(m.Layout.Size)
}

// ensure grows the buffer to at least n bytes. The buffer never shrinks.
func (m *Message) ensure(n int) {
	if n <= len(m.Buf) {
		return
	}
	if n <= cap(m.Buf) {
		m.Buf = m.Buf[:n]
		return
	}
	buf := make([]byte, n)
	copy(buf, m.Buf)
	m.Buf = buf
}

// Columns returns the described columns of the message.
func (m *Message) Columns() []ColumnDescriptor {
	return m.Area.Columns()
}

// Value returns the storage bytes of column i.
func (m *Message) Value(i int) []byte {
	d := m.Area.Vars[i]
	length, _ := storage(d)
	off := m.Layout.Columns[i].Value
	return m.Buf[off : off+length]
}

// IsNull reports whether the null indicator of column i is set.
func (m *Message) IsNull(i int) bool {
	off := m.Layout.Columns[i].Null
	return int16(binary.LittleEndian.Uint16(m.Buf[off:])) < 0
}

// SetNull sets or clears the null indicator of column i.
func (m *Message) SetNull(i int, null bool) {
	var ind int16
	if null {
		ind = -1
	}
	off := m.Layout.Columns[i].Null
	binary.LittleEndian.PutUint16(m.Buf[off:], uint16(ind))
}

// Clear zeroes the buffer up to the layout size.
func (m *Message) Clear() {
	b := m.Buf[:m.Layout.Size]
	for i := range b {
		b[i] = 0
	}
}
