package layer

// Standard priority levels. Higher values override lower values; a
// discovered browserslist loses to any explicit browsers setting.
const (
	PriorityDefaults     = 0
	PriorityBrowserslist = 50
	PriorityUser         = 100
	PriorityProject      = 200
	PriorityDotenv       = 400
	PriorityEnv          = 500
	PriorityArgs         = 600
	PrioritySession      = 1000
)

// DefaultPriority returns the standard priority for a source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceBrowserslist:
		return PriorityBrowserslist
	case SourceUser:
		return PriorityUser
	case SourceProject:
		return PriorityProject
	case SourceDotenv:
		return PriorityDotenv
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	case SourceSession:
		return PrioritySession
	default:
		return PriorityDefaults
	}
}

// StandardName returns the layer name used for a source.
func StandardName(source Source) string {
	return source.String()
}
