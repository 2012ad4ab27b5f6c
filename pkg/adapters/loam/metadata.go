package loam

// ObjectMetadata is the frontmatter of an object document in a scene directory.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type ObjectMetadata struct {
	Name       string            `json:"name" mapstructure:"name"`
	Ref        string            `json:"ref" mapstructure:"ref"`
	Attributes map[string]string `json:"attributes" mapstructure:"attributes"`
}
