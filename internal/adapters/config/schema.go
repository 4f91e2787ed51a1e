package config

// Configfile represents the structure of the crosscheck.yaml configuration file.
type Configfile struct {
	Version       string       `yaml:"version"`
	Ecosystem     EcosystemDTO `yaml:"ecosystem"`
	IncludeYanked bool         `yaml:"includeYanked"`
	Mode          string       `yaml:"mode"`
	Workers       *int         `yaml:"workers"`
	Filter        string       `yaml:"filter"`
	Timeout       string       `yaml:"timeout"`
	Paths         PathsDTO     `yaml:"paths"`
}

// EcosystemDTO selects which packages enter the snapshot.
type EcosystemDTO struct {
	Exclude    []string `yaml:"exclude"`
	IncludeAll bool     `yaml:"includeAll"`
}

// PathsDTO locates the files a run reads and writes.
type PathsDTO struct {
	Index       string `yaml:"index"`
	Regressions string `yaml:"regressions"`
	Report      string `yaml:"report"`
	Locks       string `yaml:"locks"`
}
