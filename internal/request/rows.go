package request

type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Rows is an editable list of key/value rows kept as two index-aligned
// slices. A row with an empty key is a placeholder and never submitted.
type Rows struct {
	Keys   []string `json:"keys"`
	Values []string `json:"values"`
}

// PlaceholderRows returns the single empty row a fresh editor starts with.
func PlaceholderRows() Rows {
	return Rows{Keys: []string{""}, Values: []string{""}}
}

func RowsFromPairs(pairs []Pair) Rows {
	if len(pairs) == 0 {
		return PlaceholderRows()
	}
	rows := Rows{
		Keys:   make([]string, len(pairs)),
		Values: make([]string, len(pairs)),
	}
	for i, p := range pairs {
		rows.Keys[i] = p.Key
		rows.Values[i] = p.Value
	}
	return rows
}

func (r Rows) Len() int {
	if len(r.Keys) > len(r.Values) {
		return len(r.Keys)
	}
	return len(r.Values)
}

func (r Rows) At(i int) Pair {
	var p Pair
	if i >= 0 && i < len(r.Keys) {
		p.Key = r.Keys[i]
	}
	if i >= 0 && i < len(r.Values) {
		p.Value = r.Values[i]
	}
	return p
}

// Set writes row i. Writing one past the end appends.
func (r *Rows) Set(i int, key, value string) {
	if i < 0 {
		return
	}
	r.normalize()
	for len(r.Keys) <= i {
		r.Keys = append(r.Keys, "")
		r.Values = append(r.Values, "")
	}
	r.Keys[i] = key
	r.Values[i] = value
}

func (r *Rows) Add(key, value string) {
	r.normalize()
	r.Keys = append(r.Keys, key)
	r.Values = append(r.Values, value)
}

// Remove deletes row i; removing the last row leaves a placeholder behind.
func (r *Rows) Remove(i int) bool {
	r.normalize()
	if i < 0 || i >= len(r.Keys) {
		return false
	}
	r.Keys = append(r.Keys[:i], r.Keys[i+1:]...)
	r.Values = append(r.Values[:i], r.Values[i+1:]...)
	if len(r.Keys) == 0 {
		*r = PlaceholderRows()
	}
	return true
}

// Pairs returns the submittable rows, skipping placeholders.
func (r Rows) Pairs() []Pair {
	var out []Pair
	for i := 0; i < r.Len(); i++ {
		p := r.At(i)
		if p.Key == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// OnlyPlaceholders reports whether no row carries a key.
func (r Rows) OnlyPlaceholders() bool {
	for _, k := range r.Keys {
		if k != "" {
			return false
		}
	}
	return true
}

func (r Rows) Clone() Rows {
	return Rows{
		Keys:   append([]string(nil), r.Keys...),
		Values: append([]string(nil), r.Values...),
	}
}

func (r *Rows) normalize() {
	for len(r.Values) < len(r.Keys) {
		r.Values = append(r.Values, "")
	}
	for len(r.Keys) < len(r.Values) {
		r.Keys = append(r.Keys, "")
	}
}
