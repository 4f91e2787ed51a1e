package domain

// RawDependency is one dependency entry of a raw registry record.
// Field omission rules are part of the snapshot format: default values are left out.
type RawDependency struct {
	Name            string   `yaml:"name"`
	Package         string   `yaml:"package,omitempty"`
	Req             string   `yaml:"req,omitempty"`
	Features        []string `yaml:"features,omitempty"`
	DefaultFeatures bool     `yaml:"default_features,omitempty"`
	Kind            string   `yaml:"kind,omitempty"`
	Optional        bool     `yaml:"optional,omitempty"`
}

// RawRelease is a published release as read from the registry index or a snapshot file.
// Any field may be malformed; ParseRelease validates it as a whole.
type RawRelease struct {
	Name     string              `yaml:"name"`
	Version  string              `yaml:"vers"`
	Deps     []RawDependency     `yaml:"deps,omitempty"`
	Features map[string][]string `yaml:"features,omitempty"`
	Links    string              `yaml:"links,omitempty"`
	Yanked   bool                `yaml:"yanked,omitempty"`
}
