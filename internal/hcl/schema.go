package hcl

// fileRoot is used to decode all top-level blocks from any run file.
type fileRoot struct {
	Analysis   *analysisBlock   `hcl:"analysis,block"`
	Grid       *gridBlock       `hcl:"grid,block"`
	Candidates *candidatesBlock `hcl:"candidates,block"`
	Output     *outputBlock     `hcl:"output,block"`
}

type analysisBlock struct {
	DuplicatePaths bool `hcl:"duplicate_paths,optional"`
	FirstPoint     bool `hcl:"first_point,optional"`
	Workers        int  `hcl:"workers,optional"`
	OnlyWeighted   bool `hcl:"only_weighted,optional"`
	ProgressEvery  *int `hcl:"progress_every,optional"`
}

type gridBlock struct {
	Direction string `hcl:"direction,optional"`
	Class     string `hcl:"class,optional"`
}

type candidatesBlock struct {
	Points  string `hcl:"points,optional"`
	Weights string `hcl:"weights,optional"`
}

type outputBlock struct {
	Path   string `hcl:"path,optional"`
	Format string `hcl:"format,optional"`
}
