package routing

import (
	"net/http"
	"strings"

	"github.com/km-arc/go-laravel/framework/container"
	gohttp "github.com/km-arc/go-laravel/framework/http"
	"github.com/km-arc/go-laravel/framework/multibind"
)

type entryView struct {
	Position int    `json:"position"`
	Source   string `json:"source"`
	Type     string `json:"type"`
	Priority *int   `json:"priority"`
	Index    int    `json:"index"`
}

type listView struct {
	Element          string      `json:"element"`
	ListKey          string      `json:"list_key"`
	SequenceKey      string      `json:"sequence_key"`
	PermitDuplicates bool        `json:"permit_duplicates"`
	Order            []entryView `json:"order"`
}

// Multibindings serves the resolution order of every ordered list bound
// in c. ?element= narrows the output to element types containing the
// given text.
//
//	GET /debug/multibindings?element=Shape
func Multibindings(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

		lists, err := c.ListBindings()
		if err != nil {
			res.Failure(err)
			return
		}
		filter := req.Query("element")
		out := make([]listView, 0, len(lists))
		for _, l := range lists {
			if filter != "" && !strings.Contains(l.Element, filter) {
				continue
			}
			out = append(out, describe(l))
		}
		res.Success(out)
	}
}

func describe(l container.ListDescription) listView {
	v := listView{
		Element:          l.Element,
		ListKey:          l.ListKey,
		SequenceKey:      l.SequenceKey,
		PermitDuplicates: l.PermitDuplicates,
		Order:            make([]entryView, len(l.Order)),
	}
	for i, e := range l.Order {
		ev := entryView{Position: e.Position, Source: e.Source, Type: e.Type.String(), Index: e.Index}
		// unordered renders as null rather than MaxInt
		if e.Priority != multibind.Unordered {
			p := e.Priority
			ev.Priority = &p
		}
		v.Order[i] = ev
	}
	return v
}
