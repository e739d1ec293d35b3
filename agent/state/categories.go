package state

import "strings"

// Categories is the configured category allow-list. It is the content
// boundary for every classification written to state.
type Categories struct {
	values    []string
	canonical map[string]string
}

func NewCategories(values ...string) Categories {
	c := Categories{canonical: make(map[string]string, len(values))}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := c.canonical[key]; dup {
			continue
		}
		c.canonical[key] = v
		c.values = append(c.values, v)
	}
	return c
}

// Sanitize returns the canonical spelling of v when it is allowed.
func (c Categories) Sanitize(v string) (string, bool) {
	got, ok := c.canonical[strings.ToLower(strings.TrimSpace(v))]
	return got, ok
}

func (c Categories) Allows(v string) bool {
	_, ok := c.Sanitize(v)
	return ok
}

func (c Categories) Values() []string {
	return append([]string(nil), c.values...)
}

func (c Categories) Empty() bool {
	return len(c.values) == 0
}
