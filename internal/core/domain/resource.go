package domain

// ResourceClass categorises cacheable upstream data. The class selects the TTL.
type ResourceClass string

const (
	ResourceNone      ResourceClass = ""
	ResourcePrice     ResourceClass = "price"
	ResourceToken     ResourceClass = "token"
	ResourcePortfolio ResourceClass = "portfolio"
)
