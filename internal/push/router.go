package push

import (
	"context"
	"sort"
	"strings"
)

// Router sends each device through the gateway registered for its platform,
// or through the fallback.
type Router struct {
	routes   map[string]Gateway
	fallback Gateway
}

func NewRouter(fallback Gateway) *Router {
	return &Router{routes: map[string]Gateway{}, fallback: fallback}
}

// Route registers g for platform and returns the router.
func (r *Router) Route(platform string, g Gateway) *Router {
	r.routes[platform] = g
	return r
}

// Empty reports whether the router has no gateway at all.
func (r *Router) Empty() bool { return r.fallback == nil && len(r.routes) == 0 }

func (r *Router) Name() string {
	var names []string
	for p, g := range r.routes {
		names = append(names, p+"="+g.Name())
	}
	sort.Strings(names)
	if r.fallback != nil {
		names = append(names, "*="+r.fallback.Name())
	}
	return "router(" + strings.Join(names, ",") + ")"
}

// Send groups devices by gateway. A gateway that fails as a whole only fails
// its own devices.
func (r *Router) Send(ctx context.Context, devices []Device, n Notification) ([]Outcome, error) {
	type group struct {
		g       Gateway
		devices []Device
	}
	var groups []*group
	byGateway := map[Gateway]*group{}
	var out []Outcome
	for _, d := range devices {
		g, ok := r.routes[d.Platform]
		if !ok {
			g = r.fallback
		}
		if g == nil {
			out = append(out, Outcome{Token: d.Token, Err: ErrNoRoute})
			continue
		}
		grp, ok := byGateway[g]
		if !ok {
			grp = &group{g: g}
			byGateway[g] = grp
			groups = append(groups, grp)
		}
		grp.devices = append(grp.devices, d)
	}
	for _, grp := range groups {
		res, err := grp.g.Send(ctx, grp.devices, n)
		if err != nil {
			res = FailAll(grp.devices, err)
		}
		out = append(out, res...)
	}
	return out, nil
}
