package permissions

// Permissions granted by the identity provider to the casting agency roles
const (
	GetActors    = "get:actors"
	PostActors   = "post:actors"
	PatchActors  = "patch:actors"
	DeleteActors = "delete:actors"

	GetMovies    = "get:movies"
	PostMovies   = "post:movies"
	PatchMovies  = "patch:movies"
	DeleteMovies = "delete:movies"
)

// All lists every known permission
var All = []string{
	GetActors, PostActors, PatchActors, DeleteActors,
	GetMovies, PostMovies, PatchMovies, DeleteMovies,
}

// Roles maps the casting agency roles to the permissions they are assigned
// at the identity provider. Enforcement never consults it; tokens carry the
// resolved permission list.
var Roles = map[string][]string{
	"casting_assistant": {GetActors, GetMovies},
	"casting_director": {
		GetActors, GetMovies,
		PostActors, DeleteActors,
		PatchActors, PatchMovies,
	},
	"executive_producer": All,
}
