package view

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ziadkadry99/pkweb/internal/pkapi"
)

// SortMembers returns a copy of members ordered by name, ignoring case.
// Names that compare equal fall back to exact name and then ID, so the
// result does not depend on input order. The input is left untouched.
func SortMembers(members []pkapi.Member) []pkapi.Member {
	out := make([]pkapi.Member, len(members))
	copy(out, members)

	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
