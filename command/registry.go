package command

import (
	"context"
	"sort"
	"strings"

	"github.com/kumabot/kumabot/bot/model"
)

// HandlerFunc executes one command invocation. args holds the tokens that
// followed the command word. A nil response with a nil error means the
// command chose not to reply.
type HandlerFunc func(ctx context.Context, req *model.Request, args []string) (*model.Response, error)

// Descriptor describes a single invocable command. All names in Names
// resolve to the same descriptor and share its gates and handler.
type Descriptor struct {
	Names        []string
	MinAuthority model.Authority
	NSFW         bool // only runs in channels that allow unrestricted content
	Handler      HandlerFunc
}

// Name returns the descriptor's primary invocation name.
func (d *Descriptor) Name() string {
	if len(d.Names) == 0 {
		return ""
	}
	return d.Names[0]
}

// Registry is the immutable catalog of registered commands, built once at
// startup. Lookups are case-insensitive; a miss is not an error, it signals
// fallthrough to the default conversational handler.
type Registry struct {
	byName map[string]*Descriptor
}

func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor)}
	for _, d := range descriptors {
		for _, name := range d.Names {
			r.byName[strings.ToLower(name)] = d
		}
	}
	return r
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// Descriptors returns every registered descriptor once, ordered by primary
// name.
func (r *Registry) Descriptors() []*Descriptor {
	seen := make(map[*Descriptor]struct{}, len(r.byName))
	out := make([]*Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
