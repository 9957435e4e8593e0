package model

// Variables maps plain variable names to their build-time values.
// Templates reference an entry as $NAME.
type Variables map[string]string

// Templates holds the user-configured update strings. Each may contain
// $NAME placeholders that are expanded once per run.
type Templates struct {
	Query            string `mapstructure:"query" yaml:"query"`
	Transition       string `mapstructure:"transition" yaml:"transition"`
	Comment          string `mapstructure:"comment" yaml:"comment"`
	CommentFile      string `mapstructure:"comment_file" yaml:"comment_file"`
	CustomFieldID    string `mapstructure:"custom_field_id" yaml:"custom_field_id"`
	CustomFieldValue string `mapstructure:"custom_field_value" yaml:"custom_field_value"`

	// FixedVersions is a comma-delimited list of version names.
	FixedVersions string `mapstructure:"fixed_versions" yaml:"fixed_versions"`
}

// Resolved is the per-run copy of Templates with every placeholder
// expanded. It is never shared between runs.
type Resolved struct {
	Query            string
	Transition       string
	Comment          string
	CustomFieldID    string
	CustomFieldValue string
	VersionNames     []string
}
