package schema

import "go.uber.org/multierr"

// dealer hands out each struct description once, in first-seen order.
type dealer struct {
	needs []Description
	done  map[string]struct{}
}

func (d *dealer) NextNeeds() (Description, bool) {
	for len(d.needs) > 0 {
		desc := d.needs[0]
		d.needs = d.needs[1:]

		if _, exists := d.done[desc.TypeName()]; !exists {
			d.Done(desc)

			return desc, true
		}
	}

	return nil, false
}

func (d *dealer) Needs(desc Description) {
	if _, exists := d.done[desc.TypeName()]; !exists {
		d.needs = append(d.needs, desc)
	}
}

func (d *dealer) Done(desc Description) {
	if d.done == nil {
		d.done = make(map[string]struct{})
	}

	d.done[desc.TypeName()] = struct{}{}
}

// Walk calls fn once for desc and once for every struct reachable from it
// through Nested, parents before children.
func Walk(desc Description, fn func(Description)) {
	var d dealer

	d.Needs(desc)

	for next, ok := d.NextNeeds(); ok; next, ok = d.NextNeeds() {
		for _, nested := range next.Nested() {
			d.Needs(nested)
		}

		fn(next)
	}
}

// Validate checks desc and every struct reachable from it: each schema must
// resolve and its leaves must cover the declared size. All problems found are
// returned together.
func Validate(desc Description) error {
	var err error

	Walk(desc, func(next Description) {
		leaves, decompErr := Decompose(next.TypeName(), next)
		if decompErr != nil {
			err = multierr.Append(err, decompErr)
			return
		}

		err = multierr.Append(err, CheckSize(next, leaves))
	})

	return err
}
