package router

import "strings"

// Route groups label request logs, spans and metrics. A group name listed in
// app.maintenance.endpoints blocks every route in it.
const (
	RouteGroupOTP    = "otp"
	RouteGroupIdea   = "idea"
	RouteGroupHealth = "health"
	RouteGroupOther  = "other"
)

var routeGroups = []struct {
	prefix string
	group  string
}{
	{prefix: "/api/v1/identity/otp/", group: RouteGroupOTP},
	{prefix: "/api/v1/ideas", group: RouteGroupIdea},
	{prefix: "/health", group: RouteGroupHealth},
}

func routeGroup(route string) string {
	for _, g := range routeGroups {
		if strings.HasPrefix(route, g.prefix) {
			return g.group
		}
	}
	return RouteGroupOther
}
