package models

// RouteClass selects which protection profile applies to a route.
type RouteClass string

const (
	RouteGeneral  RouteClass = "general"
	RouteLogin    RouteClass = "login"
	RoutePayment  RouteClass = "payment"
	RouteAdmin    RouteClass = "admin"
	RouteRegister RouteClass = "register"
)
