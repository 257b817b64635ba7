package openapi

type ParameterLocation string

const (
	InQuery  ParameterLocation = "query"
	InPath   ParameterLocation = "path"
	InHeader ParameterLocation = "header"
	InCookie ParameterLocation = "cookie"
)

type Parameter struct {
	Name        string
	Location    ParameterLocation
	Description string
	Required    bool
}

type Endpoint struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []Parameter
	HasBody     bool
}

type Spec struct {
	Title       string
	Version     string
	Description string
	Servers     []string
	Endpoints   []Endpoint
}

func (s *Spec) Endpoint(method, path string) (Endpoint, bool) {
	for _, ep := range s.Endpoints {
		if ep.Method == method && ep.Path == path {
			return ep, true
		}
	}
	return Endpoint{}, false
}
