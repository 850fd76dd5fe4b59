package strcrypt

import "strconv"

// Record is one encrypted literal.
type Record struct {
	Index        int
	Original     string // literal content between the quotes, escapes kept
	EncryptedB64 string
	VarName      string
}

// Table holds records in source order of first occurrence.
type Table struct {
	records []Record
}

func VarName(index int) string {
	return "_str_" + strconv.Itoa(index)
}

func (t *Table) add(original, encrypted string) Record {
	r := Record{
		Index:        len(t.records),
		Original:     original,
		EncryptedB64: encrypted,
	}
	r.VarName = VarName(r.Index)
	t.records = append(t.records, r)
	return r
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}
