package request

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Method int

const (
	GET Method = iota
	POST
	PUT
	PATCH
	DELETE
)

var methodNames = [...]string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Methods lists every selectable method in display order.
func Methods() []Method {
	return []Method{GET, POST, PUT, PATCH, DELETE}
}

func (m Method) String() string {
	if m < GET || m > DELETE {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

func (m Method) Valid() bool {
	return m >= GET && m <= DELETE
}

// Next cycles through Methods, wrapping after DELETE.
func (m Method) Next() Method {
	if !m.Valid() || m == DELETE {
		return GET
	}
	return m + 1
}

func ParseMethod(s string) (Method, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, candidate := range methodNames {
		if candidate == name {
			return Method(i), nil
		}
	}
	return GET, fmt.Errorf("unsupported method %q", s)
}

func (m Method) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid method %d", int(m))
	}
	return json.Marshal(m.String())
}

func (m *Method) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseMethod(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
